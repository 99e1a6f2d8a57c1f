package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/repository"
)

type TaskHandler struct {
	tasks repository.TaskRepository
	v     *validator.Validate
}

func NewTaskHandler(db *sql.DB) *TaskHandler {
	return &TaskHandler{
		tasks: repository.NewTaskRepository(db),
		v:     validator.New(),
	}
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func writeTaskNotFound(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotFound, "task_not_found", "Task not found")
}

// Create handles POST /api/task/
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())

	var req models.CreateTaskRequest
	if err := decodeNormalized(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeFieldErrors(w, validationFields(err))
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		UserID:      scope.UserID,
	}
	if err := h.tasks.Create(r.Context(), task); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "create_task_failed", "Failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// List handles GET /api/task/ with search, completed, created,
// created_from, created_to and ordering query parameters; all
// constraints AND together.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())
	q := r.URL.Query()

	filter := models.TaskFilter{Search: q.Get("search")}

	if raw := q.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			writeFieldErrors(w, map[string]string{"completed": "Must be a boolean."})
			return
		}
		filter.Completed = &completed
	}
	if raw := q.Get("created"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			writeFieldErrors(w, map[string]string{"created": "Enter a valid date/time."})
			return
		}
		// Exact match expressed as a degenerate range.
		filter.CreatedFrom = &t
		filter.CreatedTo = &t
	}
	if raw := q.Get("created_from"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			writeFieldErrors(w, map[string]string{"created_from": "Enter a valid date/time."})
			return
		}
		filter.CreatedFrom = &t
	}
	if raw := q.Get("created_to"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			writeFieldErrors(w, map[string]string{"created_to": "Enter a valid date/time."})
			return
		}
		filter.CreatedTo = &t
	}
	switch q.Get("ordering") {
	case "", "created":
	case "-created":
		filter.OrderDesc = true
	default:
		writeFieldErrors(w, map[string]string{"ordering": "Must be 'created' or '-created'."})
		return
	}

	tasks, err := h.tasks.List(r.Context(), scope, filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "list_tasks_failed", "Failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// parseTimeParam accepts RFC3339 timestamps and bare dates.
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// Get handles GET /api/task/{id}/
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())
	id, ok := taskID(r)
	if !ok {
		writeTaskNotFound(w)
		return
	}

	task, err := h.tasks.GetByID(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeTaskNotFound(w)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "get_task_failed", "Failed to get task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update handles PUT/PATCH /api/task/{id}/; owner and created_at are
// immutable.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())
	id, ok := taskID(r)
	if !ok {
		writeTaskNotFound(w)
		return
	}

	var req models.UpdateTaskRequest
	if err := decodeNormalized(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeFieldErrors(w, validationFields(err))
		return
	}

	task, err := h.tasks.Update(r.Context(), scope, id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeTaskNotFound(w)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "update_task_failed", "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Complete handles PUT/PATCH /api/task/{id}/complete/
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, true)
}

// Incomplete handles PUT/PATCH /api/task/{id}/incomplete/
func (h *TaskHandler) Incomplete(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, false)
}

func (h *TaskHandler) setCompleted(w http.ResponseWriter, r *http.Request, completed bool) {
	scope := middleware.ScopeFrom(r.Context())
	id, ok := taskID(r)
	if !ok {
		writeTaskNotFound(w)
		return
	}

	task, err := h.tasks.SetCompleted(r.Context(), scope, id, completed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeTaskNotFound(w)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "update_task_failed", "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/task/{id}/
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())
	id, ok := taskID(r)
	if !ok {
		writeTaskNotFound(w)
		return
	}

	if err := h.tasks.Delete(r.Context(), scope, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeTaskNotFound(w)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "delete_task_failed", "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
