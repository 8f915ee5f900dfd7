package handlers

import (
	"net/http"
	"time"

	"upkeep/internal/middleware"
	"upkeep/internal/services"
	"upkeep/internal/utils"
)

// CalendarHandler serves calendar projections of active tasks
type CalendarHandler struct {
	calendarService *services.CalendarService
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(cs *services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: cs}
}

// GetCalendar returns one event per pending or overdue task, for the
// whole account or narrowed to one product via ?product_id.
func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	productID := r.URL.Query().Get("product_id")

	var events interface{}
	if productID != "" {
		events, err = h.calendarService.EventsForProduct(authContext.UserID, productID)
	} else {
		events, err = h.calendarService.EventsForUser(authContext.UserID)
	}
	if err != nil {
		respondServiceError(w, err, "Failed to build calendar")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, events)
}

// GetMonth returns the fixed 6x7 month grid for ?anchor=YYYY-MM (default:
// current month) plus the caller's events grouped by day.
func (h *CalendarHandler) GetMonth(w http.ResponseWriter, r *http.Request) {
	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	anchor := time.Now().UTC()
	if raw := r.URL.Query().Get("anchor"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid anchor, expected YYYY-MM")
			return
		}
		anchor = parsed
	}

	month, err := h.calendarService.Month(authContext.UserID, anchor)
	if err != nil {
		respondServiceError(w, err, "Failed to build month view")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, month)
}
