package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/resettoken"
	"taskhub/internal/services"
)

func RegisterResetRoutes(router chi.Router, db *sql.DB, cfg *config.Config, resets *resettoken.Service, mailer services.EmailSender) {
	resetHandler := handlers.NewResetHandler(db, cfg, resets, mailer)

	router.Route("/reset-password", func(r chi.Router) {
		r.Post("/", resetHandler.Request)
		r.Get("/{uid}/{token}", resetHandler.Verify)
		r.Patch("/{uid}/{token}", resetHandler.Apply)
	})
}
