package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rowanhart/tasknest/internal/engine"
	"github.com/rowanhart/tasknest/internal/models"
	"github.com/rowanhart/tasknest/internal/request"
	"github.com/rowanhart/tasknest/internal/services/auth"
	"github.com/rowanhart/tasknest/internal/store"
	"github.com/rowanhart/tasknest/internal/validation"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	users   *store.UserRepository
	tokens  *auth.TokenService
	manager *engine.Manager
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *store.UserRepository, tokens *auth.TokenService, manager *engine.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, manager: manager, logger: logger}
}

// RegisterRoutes registers auth routes on the given router.
// Register and Login are public; the rest require the auth middleware.
func (h *AuthHandler) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/register", h.Register).Methods("POST")
	public.HandleFunc("/login", h.Login).Methods("POST")
	protected.HandleFunc("/logout", h.Logout).Methods("POST")
	protected.HandleFunc("/me", h.GetMe).Methods("GET")
	protected.HandleFunc("/password", h.ChangePassword).Methods("PUT")
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token and the authenticated user
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=128"`
}

// Register creates a new account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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

	req.Email = strings.TrimSpace(req.Email)
	if !emailPattern.MatchString(req.Email) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid email address")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Username already taken")
			return
		}
		h.logger.Error("user_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create account")
		return
	}

	h.logger.Info("user_registered", zap.String("user_id", user.ID.String()))
	respondJSON(w, http.StatusCreated, user)
}

// Login verifies credentials, issues a session token, and activates the
// user's task session. Activation failures are not fatal; the session loads
// lazily on the first task request instead.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid username or password")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid username or password")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.logger.Error("token_issue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to issue token")
		return
	}

	if err := h.manager.Activate(r.Context(), user.ID); err != nil {
		h.logger.Warn("session_activation_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	h.logger.Info("user_logged_in", zap.String("user_id", user.ID.String()))
	respondJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// Logout evicts the user's task session. The token itself stays valid until
// it expires; clients discard it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	h.manager.Deactivate(user.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// ChangePassword updates the authenticated user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if len(req.NewPassword) < auth.MinPasswordLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		h.logger.Error("password_update_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update password")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
