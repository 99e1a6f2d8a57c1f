package handlers

import (
	"database/sql"

	"taskhub/internal/models"
)

func errNoRows() error { return sql.ErrNoRows }

func userFixture() *models.User {
	return &models.User{
		ID:       "u1",
		Username: "test",
		Email:    "t@example.com",
		IsActive: true,
	}
}
