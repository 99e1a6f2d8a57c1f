package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/auth"
	"taskhub/internal/models"
	"taskhub/internal/repository"
)

type AuthHandler struct {
	users  repository.UserRepository
	tokens *auth.Manager
	v      *validator.Validate
}

func NewAuthHandler(db *sql.DB, tokens *auth.Manager) *AuthHandler {
	return &AuthHandler{
		users:  repository.NewUserRepository(db),
		tokens: tokens,
		v:      validator.New(),
	}
}

// Login handles POST /api/token/. Unknown username and wrong password are
// deliberately indistinguishable to the caller.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeFieldErrors(w, validationFields(err))
		return
	}

	u, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}
	if !u.IsActive {
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), u.ID, time.Now().UTC()); err != nil {
		log.Printf("failed to record last login for %s: %v", u.ID, err)
	}

	access, refresh, err := h.tokens.IssuePair(u)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "login_failed", "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, models.TokenPairResponse{Access: access, Refresh: refresh})
}

// Refresh handles POST /api/token/refresh/
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeFieldErrors(w, validationFields(err))
		return
	}

	claims, err := h.tokens.Parse(req.Refresh, auth.TokenTypeRefresh)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid or expired")
		return
	}

	access, err := h.tokens.IssueAccess(&models.User{
		ID:          claims.Subject,
		Username:    claims.Username,
		Email:       claims.Email,
		IsSuperuser: claims.Superuser,
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "refresh_failed", "Failed to refresh token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}
