package handlers

import (
	"net/http"

	"upkeep/internal/models"
	"upkeep/internal/utils"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Validation and not-found errors carry a caller-safe message; anything
// else is an internal failure and only the fallback message is exposed.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case models.IsValidation(err):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case models.IsNotFound(err):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case models.IsConflict(err):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
