package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"taskhub/internal/config"
	"taskhub/internal/normalize"
)

// decodeNormalized reads the request body and decodes it into dst with
// client field spellings folded onto their canonical snake_case names.
func decodeNormalized(r *http.Request, dst any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	return normalize.Body(raw, dst)
}

// validationFields flattens validator errors into a field → message map
// keyed by the wire-level snake_case field name.
func validationFields(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["body"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		name := normalize.Canonical(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = "This field is required."
		case "email":
			fields[name] = "Enter a valid email address."
		case "max":
			fields[name] = "Ensure this field has no more than " + fe.Param() + " characters."
		default:
			fields[name] = "Invalid value."
		}
	}
	return fields
}

// checkPasswordPolicy returns a client-facing message when the password
// fails the configured complexity rules, or "" when it passes.
func checkPasswordPolicy(cfg *config.Config, password string) string {
	if cfg.PasswordMinLength > 0 && len(password) < cfg.PasswordMinLength {
		return "Password is too short."
	}
	if cfg.PasswordRequireDigit {
		hasDigit := false
		for _, r := range password {
			if r >= '0' && r <= '9' {
				hasDigit = true
				break
			}
		}
		if !hasDigit {
			return "Password must contain at least one digit."
		}
	}
	return ""
}
