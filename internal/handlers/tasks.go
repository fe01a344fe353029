package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rowanhart/tasknest/internal/engine"
	"github.com/rowanhart/tasknest/internal/models"
	"github.com/rowanhart/tasknest/internal/queue"
	"github.com/rowanhart/tasknest/internal/request"
	"github.com/rowanhart/tasknest/internal/validation"
)

const (
	// MaxTitleLength is the maximum length for task titles
	MaxTitleLength = 10000
	// TagStatsDebounce is how long mutations are batched before tag
	// statistics are recomputed
	TagStatsDebounce = 3 * time.Second
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	manager *engine.Manager
	jobs    queue.JobQueue // nil when the worker queue is not configured
	logger  *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(manager *engine.Manager, jobs queue.JobQueue, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{manager: manager, jobs: jobs, logger: logger}
}

// RegisterRoutes registers task routes on the given router.
// The router should already have the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=10000"`
	DueDateKind string `json:"due_date_kind,omitempty" validate:"omitempty,due_date_kind"`
	DueDate     string `json:"due_date,omitempty"`
	Hashtags    string `json:"hashtags,omitempty"`
}

// UpdateTaskRequest represents an update task request. Absent fields keep
// their current values.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Status      *string `json:"status,omitempty"`
	DueDateKind *string `json:"due_date_kind,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Hashtags    *string `json:"hashtags,omitempty"`
}

// ListTasksResponse carries the visible tasks and the filter state that
// produced them
type ListTasksResponse struct {
	Tasks   []models.Task      `json:"tasks"`
	Filters engine.FilterState `json:"filters"`
}

// ListTasks returns the authenticated user's tasks through their current
// filters. Filter query parameters, when present, update the session's
// filter state before the list is computed.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		if err := validation.ValidateStatusFilter(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}
	if d := q.Get("due"); d != "" {
		if err := validation.ValidateDueDateFilter(d); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	var response ListTasksResponse
	err := h.manager.With(r.Context(), user.ID, func(e *engine.Engine) error {
		if s := q.Get("status"); s != "" {
			e.SetStatusFilter(engine.StatusFilter(s))
		}
		if d := q.Get("due"); d != "" {
			e.SetDueDateFilter(engine.DueDateFilter(d))
		}
		if q.Has("hashtag") {
			e.SetHashtagFilter(q.Get("hashtag"))
		}
		response = ListTasksResponse{
			Tasks:   e.Visible(),
			Filters: e.Filters(),
		}
		return nil
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// CreateTask creates a new task for the authenticated user
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	draft := engine.Draft{
		Title:       req.Title,
		DueDateKind: models.DueDateKind(req.DueDateKind),
		DueDate:     req.DueDate,
		Hashtags:    validation.SanitizeText(req.Hashtags),
	}

	var created models.Task
	err := h.manager.With(r.Context(), user.ID, func(e *engine.Engine) error {
		task, createErr := e.Create(r.Context(), draft)
		if createErr != nil {
			return createErr
		}
		created = task
		return nil
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	h.enqueueTagStats(r, user.ID)
	respondJSON(w, http.StatusCreated, created)
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Status != nil {
		if err := validation.ValidateTaskStatus(*req.Status); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}
	if req.DueDateKind != nil {
		if err := validation.ValidateDueDateKind(*req.DueDateKind); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}
	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxTitleLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Title exceeds maximum length of %d characters", MaxTitleLength))
			return
		}
		req.Title = &sanitized
	}

	var updated models.Task
	err = h.manager.With(r.Context(), user.ID, func(e *engine.Engine) error {
		task, ok := e.Get(id)
		if !ok {
			return &engine.NotFoundError{ID: id}
		}

		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Status != nil {
			task.Status = models.TaskStatus(*req.Status)
		}
		if req.DueDateKind != nil || req.DueDate != nil {
			kind := task.DueDateKind
			if req.DueDateKind != nil {
				kind = models.DueDateKind(*req.DueDateKind)
			}
			custom := ""
			if req.DueDate != nil {
				custom = *req.DueDate
			} else if task.DueDate != nil {
				custom = task.DueDate.Format(models.DueDateLayout)
			}
			due, resolveErr := models.ResolveDueDate(kind, custom, time.Now())
			if resolveErr != nil {
				return &engine.ValidationError{Field: "due_date", Reason: resolveErr.Error()}
			}
			task.DueDateKind = kind
			task.DueDate = due
		}
		if req.Hashtags != nil {
			task.Hashtags = validation.SanitizeText(*req.Hashtags)
		}

		if updateErr := e.Update(r.Context(), task); updateErr != nil {
			return updateErr
		}
		updated = task
		return nil
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	h.enqueueTagStats(r, user.ID)
	respondJSON(w, http.StatusOK, updated)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	err = h.manager.With(r.Context(), user.ID, func(e *engine.Engine) error {
		return e.Remove(r.Context(), id)
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	h.enqueueTagStats(r, user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// enqueueTagStats schedules a debounced tag statistics recompute for the
// user. Queue failures are logged, never surfaced; statistics are advisory.
func (h *TaskHandler) enqueueTagStats(r *http.Request, userID uuid.UUID) {
	if h.jobs == nil {
		return
	}
	job := queue.NewJob(queue.JobTypeTagStats, userID)
	notBefore := time.Now().Add(TagStatsDebounce)
	job.NotBefore = &notBefore
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.Warn("failed_to_enqueue_tag_stats_job",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// decodeBody decodes a JSON request body, writing the error response itself
// when decoding fails
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}
