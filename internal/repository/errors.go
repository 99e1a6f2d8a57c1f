package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound covers both truly absent rows and rows outside the caller's
// scope; handlers map it to 404 without distinguishing the two.
var ErrNotFound = errors.New("not found")

// ConflictError reports a uniqueness violation on a named field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already taken", e.Field)
}

// conflictField maps a postgres unique-violation error to the offending
// field, or returns nil if err is not a unique violation.
func conflictField(err error) *ConflictError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch pqErr.Constraint {
	case "users_username_key":
		return &ConflictError{Field: "username"}
	case "users_email_key":
		return &ConflictError{Field: "email"}
	}
	return &ConflictError{Field: "unknown"}
}
