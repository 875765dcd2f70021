package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ride-planner/internal/drivers"
	"ride-planner/pkg/jwt"
)

type ctxKey string

const identityCtxKey ctxKey = "identity"

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// FromContext returns the identity set by Guard (nil if absent).
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityCtxKey).(*Identity)
	return id
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// Guard requires valid claims (see jwt.OptionalAuth) and a linked driver.
// Browsers without a session are redirected to the login page; API clients get 401.
func Guard(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := jwt.GetClaims(r.Context())
			if claims == nil {
				if wantsHTML(r) {
					http.Redirect(w, r, LoginPath, http.StatusSeeOther)
					return
				}
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "redirect": LoginPath})
				return
			}

			id, err := s.Resolve(r.Context(), claims)
			switch {
			case errors.Is(err, ErrNotProvisioned):
				writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
				return
			case err != nil:
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects identities without the given role. Use after Guard.
func RequireRole(role drivers.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil || id.Driver.Role != role {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
