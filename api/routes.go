package api

import (
	"github.com/gorilla/mux"

	"upkeep/internal/handlers"
	"upkeep/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	router *mux.Router,
	authMiddleware *middleware.AuthMiddleware,
	productHandler *handlers.ProductHandler,
	taskHandler *handlers.TaskHandler,
	calendarHandler *handlers.CalendarHandler,
) {
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Product routes (protected)
	v1.HandleFunc("/products", authMiddleware.JWTAuth(productHandler.CreateProduct)).Methods("POST")
	v1.HandleFunc("/products", authMiddleware.JWTAuth(productHandler.GetProducts)).Methods("GET")
	v1.HandleFunc("/products/{id}", authMiddleware.JWTAuth(productHandler.GetProductByID)).Methods("GET")
	v1.HandleFunc("/products/{id}", authMiddleware.JWTAuth(productHandler.UpdateProduct)).Methods("PUT")
	v1.HandleFunc("/products/{id}", authMiddleware.JWTAuth(productHandler.DeleteProduct)).Methods("DELETE")

	// Task routes (protected); creation always attaches to a product
	v1.HandleFunc("/products/{id}/tasks", authMiddleware.JWTAuth(taskHandler.CreateTask)).Methods("POST")
	v1.HandleFunc("/tasks", authMiddleware.JWTAuth(taskHandler.GetTasks)).Methods("GET")
	v1.HandleFunc("/tasks/{id}", authMiddleware.JWTAuth(taskHandler.GetTaskByID)).Methods("GET")
	v1.HandleFunc("/tasks/{id}", authMiddleware.JWTAuth(taskHandler.UpdateTask)).Methods("PUT")
	v1.HandleFunc("/tasks/{id}", authMiddleware.JWTAuth(taskHandler.DeleteTask)).Methods("DELETE")
	v1.HandleFunc("/tasks/{id}/complete", authMiddleware.JWTAuth(taskHandler.CompleteTask)).Methods("POST")
	v1.HandleFunc("/tasks/{id}/postpone", authMiddleware.JWTAuth(taskHandler.PostponeTask)).Methods("POST")

	// Calendar routes (protected)
	v1.HandleFunc("/calendar", authMiddleware.JWTAuth(calendarHandler.GetCalendar)).Methods("GET")
	v1.HandleFunc("/calendar/month", authMiddleware.JWTAuth(calendarHandler.GetMonth)).Methods("GET")
}
