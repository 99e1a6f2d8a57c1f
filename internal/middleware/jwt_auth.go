package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskhub/internal/auth"
	"taskhub/internal/models"
)

type ctxKey string

const ctxScope ctxKey = "scope"

// JWTAuth rejects requests without a valid bearer access token and places
// the requester's scope in the context. Refresh tokens are not accepted
// here.
func JWTAuth(tokens *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Invalid Authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Parse(parts[1], auth.TokenTypeAccess)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxScope, claims.Scope())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ScopeFrom returns the requester scope placed by JWTAuth. The zero scope
// (no user id, no privilege) comes back on unauthenticated paths.
func ScopeFrom(ctx context.Context) models.Scope {
	scope, _ := ctx.Value(ctxScope).(models.Scope)
	return scope
}

// WithScope is a test seam for handlers that read the requester scope.
func WithScope(ctx context.Context, scope models.Scope) context.Context {
	return context.WithValue(ctx, ctxScope, scope)
}
