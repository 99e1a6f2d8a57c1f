package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/config"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/repository"
)

type UserHandler struct {
	users repository.UserRepository
	cfg   *config.Config
	v     *validator.Validate
}

func NewUserHandler(db *sql.DB, cfg *config.Config) *UserHandler {
	return &UserHandler{
		users: repository.NewUserRepository(db),
		cfg:   cfg,
		v:     validator.New(),
	}
}

// Register handles POST /api/user/
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeNormalized(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeFieldErrors(w, validationFields(err))
		return
	}
	if req.Password != req.PasswordConfirmation {
		writeJSONError(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.")
		return
	}
	if msg := checkPasswordPolicy(h.cfg, req.Password); msg != "" {
		writeFieldErrors(w, map[string]string{"password": msg})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "signup_failed", "Failed to create user")
		return
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.Create(r.Context(), u); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			writeFieldErrors(w, map[string]string{conflict.Field: "Already taken."})
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "signup_failed", "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// List handles GET /api/user/; non-superusers only ever see themselves.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())

	users, err := h.users.List(r.Context(), scope)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "list_users_failed", "Failed to list users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles GET /api/user/{id}/
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())
	id := chi.URLParam(r, "id")

	// Out-of-scope ids answer 404, not 403, so existence is never confirmed.
	if !scope.Owns(id) {
		writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
		return
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "get_user_failed", "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Update handles PUT/PATCH /api/user/{id}/. Every change is gated on proof
// of the current password.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())
	id := chi.URLParam(r, "id")

	if !scope.Owns(id) {
		writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
		return
	}

	var req models.UpdateUserRequest
	if err := decodeNormalized(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeFieldErrors(w, validationFields(err))
		return
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "update_user_failed", "Failed to update user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeJSONError(w, http.StatusBadRequest, "wrong_current_password", "Current password is incorrect.")
		return
	}

	var newHash *string
	if req.NewPassword != "" || req.NewPasswordConfirmation != "" {
		if req.NewPassword != req.NewPasswordConfirmation {
			writeJSONError(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.")
			return
		}
		if msg := checkPasswordPolicy(h.cfg, req.NewPassword); msg != "" {
			writeFieldErrors(w, map[string]string{"new_password": msg})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "update_user_failed", "Failed to update user")
			return
		}
		s := string(hash)
		newHash = &s
	}

	var newEmail *string
	if req.NewEmail != "" && req.NewEmail != u.Email {
		newEmail = &req.NewEmail
	}

	// Both changes ride a single UPDATE so an email conflict cannot leave a
	// half-applied password change behind.
	if newHash != nil || newEmail != nil {
		if err := h.users.UpdateProfile(r.Context(), id, newHash, newEmail); err != nil {
			var conflict *repository.ConflictError
			if errors.As(err, &conflict) {
				writeFieldErrors(w, map[string]string{"new_email": "Already taken."})
				return
			}
			writeJSONError(w, http.StatusInternalServerError, "update_user_failed", "Failed to update user")
			return
		}
		if newEmail != nil {
			u.Email = *newEmail
		}
	}

	writeJSON(w, http.StatusOK, u)
}

// Delete handles DELETE /api/user/{id}/; tasks cascade with the row.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r.Context())
	id := chi.URLParam(r, "id")

	if !scope.Owns(id) {
		writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
		return
	}

	if err := h.users.Delete(r.Context(), scope, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "delete_user_failed", "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
