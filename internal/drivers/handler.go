package drivers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes driver HTTP endpoints. Authentication is applied by the caller.
type Handler struct{ dir *Directory }

// NewHandler wires a handler to the driver directory.
func NewHandler(dir *Directory) *Handler { return &Handler{dir: dir} }

// Routes returns a chi.Router with all driver routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	return r
}

// List returns every driver, or only one role with ?role=chauffeur.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.dir.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	if role := r.URL.Query().Get("role"); role != "" {
		list = FilterRole(list, Role(role))
	}
	writeJSON(w, http.StatusOK, map[string]any{"drivers": list})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	d, err := h.dir.ByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
