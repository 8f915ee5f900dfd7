package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"upkeep/internal/utils"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	ContextKeyAuthContext ContextKey = "authContext"
)

// AuthContext holds the authenticated owner identity for a request.
// Identity is issued elsewhere; this service only verifies the token and
// uses the user id to scope every query.
type AuthContext struct {
	UserID primitive.ObjectID
}

// AuthMiddleware verifies bearer JWTs and populates the AuthContext.
type AuthMiddleware struct {
	jwtSecret []byte
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(secret []byte) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: secret}
}

// JWTAuth verifies the Authorization header and stores the caller's
// AuthContext in the request context before invoking next.
func (m *AuthMiddleware) JWTAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}
		userIDHex, ok := claims["user_id"].(string)
		if !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, "User ID claim missing or invalid")
			return
		}
		userID, err := primitive.ObjectIDFromHex(userIDHex)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid user ID format in token")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyAuthContext, &AuthContext{UserID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetAuthContext retrieves the AuthContext stored by JWTAuth.
func GetAuthContext(r *http.Request) (*AuthContext, error) {
	ac, ok := r.Context().Value(ContextKeyAuthContext).(*AuthContext)
	if !ok || ac == nil {
		return nil, errors.New("authentication context missing from request")
	}
	return ac, nil
}
