package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/auth"
	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
)

func RegisterTaskRoutes(router chi.Router, db *sql.DB, tokens *auth.Manager) {
	taskHandler := handlers.NewTaskHandler(db)

	router.Route("/task", func(r chi.Router) {
		r.Use(middleware.JWTAuth(tokens))

		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.Get)
			r.Put("/", taskHandler.Update)
			r.Patch("/", taskHandler.Update)
			r.Delete("/", taskHandler.Delete)

			r.Put("/complete", taskHandler.Complete)
			r.Patch("/complete", taskHandler.Complete)
			r.Put("/incomplete", taskHandler.Incomplete)
			r.Patch("/incomplete", taskHandler.Incomplete)
		})
	})
}
