package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/config"
	"taskhub/internal/models"
	"taskhub/internal/repository"
	"taskhub/internal/resettoken"
	"taskhub/internal/services"
)

type ResetHandler struct {
	users  repository.UserRepository
	resets *resettoken.Service
	mailer services.EmailSender
	cfg    *config.Config
	v      *validator.Validate
}

func NewResetHandler(db *sql.DB, cfg *config.Config, resets *resettoken.Service, mailer services.EmailSender) *ResetHandler {
	return &ResetHandler{
		users:  repository.NewUserRepository(db),
		resets: resets,
		mailer: mailer,
		cfg:    cfg,
		v:      validator.New(),
	}
}

// Request handles POST /api/reset-password/. An unknown email answers 404;
// callers can tell whether an address is registered.
func (h *ResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := decodeNormalized(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeFieldErrors(w, validationFields(err))
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "user_not_found", "No user with that email")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "reset_request_failed", "Failed to request password reset")
		return
	}
	if !u.IsActive {
		writeJSONError(w, http.StatusNotFound, "user_not_found", "No user with that email")
		return
	}

	token := h.resets.Issue(u)
	link := fmt.Sprintf("%s/reset-password/%s/%s",
		h.cfg.ResetURLBase, resettoken.EncodeUserID(u.ID), token)

	subject := "Reset your password"
	body := "Follow this link to reset your password:\n\n" + link +
		fmt.Sprintf("\n\nThe link expires in %d minutes.", h.cfg.ResetTokenTTLSeconds/60)
	if err := h.mailer.Send(u.Email, subject, body); err != nil {
		log.Printf("failed to send reset email to user %s: %v", u.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "reset_request_failed", "Failed to send reset email")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadUserForToken resolves the base64url id segment of a reset link.
func (h *ResetHandler) loadUserForToken(w http.ResponseWriter, r *http.Request) *models.User {
	id, err := resettoken.DecodeUserID(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
		return nil
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
			return nil
		}
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to load user")
		return nil
	}
	if !u.IsActive {
		writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
		return nil
	}
	return u
}

// Verify handles GET /api/reset-password/{uid}/{token}
func (h *ResetHandler) Verify(w http.ResponseWriter, r *http.Request) {
	u := h.loadUserForToken(w, r)
	if u == nil {
		return
	}

	if err := h.resets.Verify(u, chi.URLParam(r, "token")); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_token", "Token is expired or has been used")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// Apply handles PATCH /api/reset-password/{uid}/{token}. Validity is
// re-checked at commit: the hash swap only lands if the stored hash still
// matches the one the token was signed against, so a racing reset that
// committed first makes this one fail.
func (h *ResetHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeNormalized(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeFieldErrors(w, validationFields(err))
		return
	}
	if req.NewPassword != req.NewPasswordConfirmation {
		writeJSONError(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.")
		return
	}
	if msg := checkPasswordPolicy(h.cfg, req.NewPassword); msg != "" {
		writeFieldErrors(w, map[string]string{"new_password": msg})
		return
	}

	u := h.loadUserForToken(w, r)
	if u == nil {
		return
	}

	if err := h.resets.Verify(u, chi.URLParam(r, "token")); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_token", "Token is expired or has been used")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}

	if err := h.users.ReplacePasswordHash(r.Context(), u.ID, u.PasswordHash, string(hash)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusBadRequest, "invalid_token", "Token is expired or has been used")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
