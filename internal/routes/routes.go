package routes

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/resettoken"
	"taskhub/internal/services"
)

func SetupRoutes(db *sql.DB, cfg *config.Config) *chi.Mux {
	tokens := auth.NewManager(
		cfg.JWTSecret,
		time.Duration(cfg.AccessTokenTTLSeconds)*time.Second,
		time.Duration(cfg.RefreshTokenTTLSeconds)*time.Second,
	)
	resets := resettoken.NewService(
		cfg.JWTSecret,
		time.Duration(cfg.ResetTokenTTLSeconds)*time.Second,
	)
	mailer := &services.SMTPSender{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPassword,
		From:   cfg.SMTPFrom,
		UseTLS: cfg.SMTPUseTLS,
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	// Clients address resources with trailing slashes (/api/task/1/).
	r.Use(chimw.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "taskhub api"})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		resp := map[string]any{"status": "ok"}
		dbStatus := map[string]string{"status": "ok"}
		status := http.StatusOK
		if err := db.PingContext(req.Context()); err != nil {
			dbStatus["status"] = "down"
			dbStatus["error"] = err.Error()
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
		resp["db"] = dbStatus
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	})

	r.Route("/api", func(r chi.Router) {
		RegisterAuthRoutes(r, db, tokens)
		RegisterUserRoutes(r, db, cfg, tokens)
		RegisterTaskRoutes(r, db, tokens)
		RegisterResetRoutes(r, db, cfg, resets, mailer)
	})

	return r
}
