package rides

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ride-planner/internal/auth"
	"ride-planner/internal/dayplan"
)

// Handler exposes ride HTTP endpoints. Routes must be mounted behind auth.Guard.
type Handler struct {
	svc   *Service
	today func() dayplan.Date
}

// NewHandler wires a handler to the ride service. today supplies the default date.
func NewHandler(svc *Service, today func() dayplan.Date) *Handler {
	return &Handler{svc: svc, today: today}
}

// Routes returns a chi.Router with all ride routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListByDate)
	r.Get("/completed", h.ListCompleted) // must come before /{id}
	r.Get("/week", h.ListWeek)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.SetStatus)
	r.Delete("/{id}", h.Delete)

	return r
}

// StatusRequest is the body for PATCH /rides/{id}/status.
type StatusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) ListByDate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListByDate(r.Context(), d)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": d, "rides": list})
}

func (h *Handler) ListWeek(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	id := auth.FromContext(r.Context())
	driverID := id.Driver.ID
	if q := r.URL.Query().Get("driver"); q != "" && id.Driver.IsPlanner() {
		driverID = q
	}
	list, err := h.svc.ListWeek(r.Context(), driverID, d)
	if err != nil {
		WriteError(w, err)
		return
	}
	week := d.Week()
	writeJSON(w, http.StatusOK, map[string]any{"from": week[0], "to": week[6], "driver_id": driverID, "rides": list})
}

func (h *Handler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListCompleted(r.Context(), actorOf(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rides": list})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	ride, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	ride, err := h.svc.Create(r.Context(), actorOf(r), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	ride, err := h.svc.Update(r.Context(), actorOf(r), chi.URLParam(r, "id"), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	ride, err := h.svc.SetStatus(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (dayplan.Date, bool) {
	q := r.URL.Query().Get("date")
	if q == "" {
		return h.today(), true
	}
	d, err := dayplan.Parse(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return dayplan.Date{}, false
	}
	return d, true
}

func actorOf(r *http.Request) Actor {
	id := auth.FromContext(r.Context())
	if id == nil {
		return Actor{}
	}
	return ActorFor(id.Driver)
}

// HTTPStatus maps ride errors to HTTP status codes. Unknown errors are store failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidStatus):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

// WriteError writes err as {"error": msg}, adding the offending fields for validation errors.
func WriteError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}
	var verr *ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	writeJSON(w, HTTPStatus(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
