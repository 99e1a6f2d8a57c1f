package models

import "time"

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty"`
}

// TaskFilter narrows task listings. Zero-value fields mean "no constraint";
// all set fields combine with AND.
type TaskFilter struct {
	Search      string
	Completed   *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	// OrderDesc reverses the created_at sort (newest first).
	OrderDesc bool
}
