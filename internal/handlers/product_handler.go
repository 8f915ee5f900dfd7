package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"upkeep/internal/middleware"
	"upkeep/internal/models"
	"upkeep/internal/services"
	"upkeep/internal/utils"
)

// ProductHandler handles product related HTTP requests
type ProductHandler struct {
	productService *services.ProductService
	validator      *validator.Validate
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(ps *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: ps,
		validator:      validator.New(),
	}
}

// CreateProduct handles registering a new product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	product, err := h.productService.CreateProduct(authContext.UserID, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to create product")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, product)
}

// GetProducts handles listing the caller's products
func (h *ProductHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	products, err := h.productService.GetProducts(authContext.UserID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve products")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, products)
}

// GetProductByID handles retrieving a single product
func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	product, err := h.productService.GetProductByID(authContext.UserID, productID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve product")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}

// UpdateProduct handles renaming a product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	var req models.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(authContext.UserID, productID, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update product")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product and all of its tasks
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.productService.DeleteProduct(authContext.UserID, productID); err != nil {
		respondServiceError(w, err, "Failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
