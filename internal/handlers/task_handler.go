package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"upkeep/internal/middleware"
	"upkeep/internal/models"
	"upkeep/internal/services"
	"upkeep/internal/utils"
)

// maxPageSize caps how many tasks one page may carry.
const maxPageSize = 100

// parsePagination reads page and limit query parameters, falling back to
// page 1 and 10 per page. Oversized limits are clamped to the cap rather
// than reset.
func parsePagination(query url.Values) (page, limit int64) {
	page, err := strconv.ParseInt(query.Get("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.ParseInt(query.Get("limit"), 10, 64)
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// TaskHandler handles task related HTTP requests
type TaskHandler struct {
	taskService *services.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(ts *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: ts,
		validator:   validator.New(),
	}
}

// CreateTask handles creating a new task under a product
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	var req models.CreateTaskRequest
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

	task, err := h.taskService.CreateTask(authContext.UserID, productID, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to create task")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, task)
}

// GetTasks handles listing tasks with search, status filter, and pagination
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	page, limit := parsePagination(r.URL.Query())

	filter := models.TaskListFilter{
		ProductID: r.URL.Query().Get("product_id"),
		Status:    models.TaskStatus(r.URL.Query().Get("status")),
		Search:    r.URL.Query().Get("search"),
		Page:      page,
		Limit:     limit,
	}

	resp, err := h.taskService.GetTasks(authContext.UserID, filter)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve tasks")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GetTaskByID handles retrieving a single task by ID
func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	task, err := h.taskService.GetTaskByID(authContext.UserID, taskID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve task")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, task)
}

// UpdateTask handles patching an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	var req models.UpdateTaskRequest
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

	task, err := h.taskService.UpdateTask(authContext.UserID, taskID, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update task")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, task)
}

// DeleteTask handles deleting a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.taskService.DeleteTask(authContext.UserID, taskID); err != nil {
		respondServiceError(w, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask handles marking a task as done now
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	authContext, err := middleware.GetAuthContext(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	task, err := h.taskService.CompleteTask(authContext.UserID, taskID)
	if err != nil {
		respondServiceError(w, err, "Failed to complete task")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, task)
}

// PostponeTask handles pushing a task's due date out by whole days
func (h *TaskHandler) PostponeTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	var req models.PostponeTaskRequest
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

	task, err := h.taskService.PostponeTask(authContext.UserID, taskID, req.Days)
	if err != nil {
		respondServiceError(w, err, "Failed to postpone task")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, task)
}
