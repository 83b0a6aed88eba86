package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/bher20/costcalc/internal/storage"
)

type contextKey string

const (
	TokenContextKey contextKey = "token"
	RoleContextKey  contextKey = "role"
)

// TokenFromContext returns the authenticated token, if any.
func TokenFromContext(ctx context.Context) (*storage.Token, bool) {
	t, ok := ctx.Value(TokenContextKey).(*storage.Token)
	return t, ok
}

// Middleware authenticates a bearer token when one is presented. Requests
// without an Authorization header pass through anonymously.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
			return
		}

		token, err := s.ValidateToken(r.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), TokenContextKey, token)
		ctx = context.WithValue(ctx, RoleContextKey, token.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission rejects requests whose token role may not perform act
// on obj.
func (s *Service) RequirePermission(obj, act string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := TokenFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			allowed, err := s.Enforce(token.Role, obj, act)
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
