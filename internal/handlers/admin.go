package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rowanhart/tasknest/internal/engine"
	"github.com/rowanhart/tasknest/internal/models"
	"github.com/rowanhart/tasknest/internal/request"
	"github.com/rowanhart/tasknest/internal/services/auth"
	"github.com/rowanhart/tasknest/internal/store"
)

// AdminHandler handles administrative requests. Routes registered here sit
// behind the RequireAdmin middleware.
type AdminHandler struct {
	users   *store.UserRepository
	tasks   *store.TaskRepository
	manager *engine.Manager
	logger  *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users *store.UserRepository, tasks *store.TaskRepository, manager *engine.Manager, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, tasks: tasks, manager: manager, logger: logger}
}

// RegisterRoutes registers admin routes on the given router.
// The router should already have the /admin prefix.
func (h *AdminHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/users", h.ListUsers).Methods("GET")
	r.HandleFunc("/users/{id}/password", h.ResetPassword).Methods("PUT")
	r.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")
}

// AdminUser is a user row in the admin listing
type AdminUser struct {
	models.User
	TaskCount int `json:"task_count"`
}

// ResetPasswordRequest represents an admin password reset request
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// userLess returns the comparator for a sort field, or nil for unknown fields
func userLess(field string) func(a, b AdminUser) bool {
	switch field {
	case "username":
		return func(a, b AdminUser) bool { return strings.ToLower(a.Username) < strings.ToLower(b.Username) }
	case "email":
		return func(a, b AdminUser) bool { return strings.ToLower(a.Email) < strings.ToLower(b.Email) }
	case "created_at":
		return func(a, b AdminUser) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "task_count":
		return func(a, b AdminUser) bool { return a.TaskCount < b.TaskCount }
	default:
		return nil
	}
}

// ListUsers lists all accounts with their task counts. Sortable via
// ?sort=<field>&order=<asc|desc>; defaults to username ascending.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("admin_list_users_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list users")
		return
	}

	counts, err := h.tasks.CountByOwner(r.Context())
	if err != nil {
		h.logger.Error("admin_count_tasks_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to count tasks")
		return
	}

	rows := make([]AdminUser, 0, len(users))
	for _, u := range users {
		rows = append(rows, AdminUser{User: u, TaskCount: counts[u.ID]})
	}

	sortField := r.URL.Query().Get("sort")
	if sortField == "" {
		sortField = "username"
	}
	less := userLess(sortField)
	if less == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Unknown sort field %q", sortField))
		return
	}

	order := r.URL.Query().Get("order")
	switch order {
	case "", "asc":
	case "desc":
		asc := less
		less = func(a, b AdminUser) bool { return asc(b, a) }
	default:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Unknown sort order %q", order))
		return
	}

	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	respondJSON(w, http.StatusOK, rows)
}

// ResetPassword sets a new password for any account
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user ID")
		return
	}

	var req ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if err := h.users.UpdatePassword(r.Context(), id, hash); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	}

	h.logger.Info("admin_password_reset", zap.String("user_id", id.String()))
	respondJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

// DeleteUser removes an account. Their tasks and statistics go with it
// (cascade), and any live session is evicted.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user ID")
		return
	}

	admin := request.UserFromContext(r)
	if admin != nil && admin.ID == id {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Cannot delete your own account")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	}

	h.manager.Deactivate(id)
	h.logger.Info("admin_user_deleted", zap.String("user_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
