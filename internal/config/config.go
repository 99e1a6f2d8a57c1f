package config

import (
	"net/url"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string

	JWTSecret              string
	AccessTokenTTLSeconds  int64
	RefreshTokenTTLSeconds int64

	// ResetTokenTTLSeconds bounds how long a password-reset link stays
	// valid. The token itself is stateless; expiry is checked against the
	// timestamp embedded in it.
	ResetTokenTTLSeconds int64
	ResetURLBase         string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool

	// Password policy. Both default to off; deployments opt in via env.
	PasswordMinLength    int
	PasswordRequireDigit bool
}

func Load() *Config {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := getEnv("PSQL_HOST", "localhost")
		port := getEnv("PSQL_PORT", "5432")
		user := getEnv("PSQL_USER", "postgres")
		password := getEnv("PSQL_PASSWORD", "postgres")
		dbName := getEnv("PSQL_DB_NAME", "taskhub")

		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, password),
			Host:   host + ":" + port,
			Path:   dbName,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		databaseURL = u.String()
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		JWTSecret:              getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTokenTTLSeconds:  getEnvInt("ACCESS_TOKEN_TTL_SECONDS", 900),
		RefreshTokenTTLSeconds: getEnvInt("REFRESH_TOKEN_TTL_SECONDS", 86400),

		ResetTokenTTLSeconds: getEnvInt("RESET_TOKEN_TTL_SECONDS", 3600),
		ResetURLBase:         getEnv("RESET_URL_BASE", "http://localhost:8080/api"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@taskhub.local"),
		SMTPUseTLS:   getEnvBool("SMTP_USE_TLS", false),

		PasswordMinLength:    int(getEnvInt("PASSWORD_MIN_LENGTH", 0)),
		PasswordRequireDigit: getEnvBool("PASSWORD_REQUIRE_DIGIT", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
