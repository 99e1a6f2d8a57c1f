package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/auth"
	"taskhub/internal/handlers"
)

func RegisterAuthRoutes(router chi.Router, db *sql.DB, tokens *auth.Manager) {
	authHandler := handlers.NewAuthHandler(db, tokens)

	router.Route("/token", func(r chi.Router) {
		r.Post("/", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
	})
}
