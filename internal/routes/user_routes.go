package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
)

func RegisterUserRoutes(router chi.Router, db *sql.DB, cfg *config.Config, tokens *auth.Manager) {
	userHandler := handlers.NewUserHandler(db, cfg)

	router.Route("/user", func(r chi.Router) {
		// Signup is the only unauthenticated user endpoint.
		r.Post("/", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(tokens))
			r.Get("/", userHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Put("/", userHandler.Update)
				r.Patch("/", userHandler.Update)
				r.Delete("/", userHandler.Delete)
			})
		})
	})
}
