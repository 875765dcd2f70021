package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ride-planner/pkg/jwt"
)

// Handler exposes sign-in endpoints.
type Handler struct {
	svc          *Service
	secureCookie bool
	onLogout     func(sessionID string)
}

// NewHandler wires a handler to the auth service. onLogout may be nil.
func NewHandler(svc *Service, secureCookie bool, onLogout func(sessionID string)) *Handler {
	return &Handler{svc: svc, secureCookie: secureCookie, onLogout: onLogout}
}

// Routes returns a chi.Router with all auth routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Public
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(Guard(h.svc))
		r.Get("/me", h.Me)
	})

	return r
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	resp, err := h.svc.Login(r.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, ErrNotProvisioned):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	jwt.SetCookie(w, resp.Token, h.secureCookie)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c := jwt.GetClaims(r.Context()); c != nil && h.onLogout != nil {
		h.onLogout(c.SessionID())
	}
	jwt.ClearCookie(w, h.secureCookie)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := FromContext(r.Context())
	writeJSON(w, http.StatusOK, LoginResponse{Driver: &id.Driver, Home: Home(id.Driver)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
