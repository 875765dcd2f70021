package board

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ride-planner/internal/auth"
	"ride-planner/internal/dayplan"
	"ride-planner/internal/drivers"
	"ride-planner/internal/export"
	"ride-planner/internal/rides"
)

// Handler serves the session board. Routes must be mounted behind auth.Guard.
type Handler struct {
	reg *Registry
	log *slog.Logger
}

func NewHandler(reg *Registry, log *slog.Logger) *Handler {
	return &Handler{reg: reg, log: log.With("component", "board")}
}

// Routes returns a chi.Router with all board routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	planner := auth.RequireRole(drivers.RolePlanner)

	r.Get("/", h.Board)
	r.Get("/week", h.Week)
	r.Post("/shift", h.Shift)
	r.Post("/today", h.Today)
	r.Post("/date", h.SelectDate)

	r.Post("/editor", h.OpenEditor)
	r.Put("/editor", h.SubmitEditor)
	r.Delete("/editor", h.CloseEditor)

	r.With(planner).Delete("/rides/{id}", h.DeleteRide)
	r.Patch("/rides/{id}/status", h.SetStatus)

	r.Get("/export", h.ExportDay)
	r.With(planner).Get("/export/completed", h.ExportCompleted)

	return r
}

// ShiftRequest is the body for POST /board/shift.
type ShiftRequest struct {
	Days int `json:"days"`
}

// DateRequest is the body for POST /board/date.
type DateRequest struct {
	Date dayplan.Date `json:"date"`
}

// OpenEditorRequest is the body for POST /board/editor. Both fields empty opens a new ride.
type OpenEditorRequest struct {
	RideID   string `json:"ride_id"`
	DriverID string `json:"driver_id"`
}

func (h *Handler) controller(r *http.Request) *Controller {
	id := auth.FromContext(r.Context())
	c, created := h.reg.Get(id.SessionID, id.Driver)
	if created {
		if err := c.Load(r.Context()); err != nil {
			h.log.Warn("initial board load incomplete", "driver_id", id.Driver.ID, "error", err)
		}
	}
	return c
}

// Board returns the selected day. Load failures are reported in the view, not as an error status.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller(r).View())
}

func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	var anchor dayplan.Date
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := dayplan.Parse(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		anchor = d
	}
	v, err := h.controller(r).Week(r.Context(), r.URL.Query().Get("driver"), anchor)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Shift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	v, _ := h.controller(r).Shift(r.Context(), req.Days)
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	v, _ := h.controller(r).Today(r.Context())
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req DateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}
	v, _ := h.controller(r).Select(r.Context(), req.Date)
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var req OpenEditorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	v, err := h.controller(r).OpenEditor(r.Context(), req.RideID, req.DriverID)
	if err != nil {
		writeError(w, err, map[string]any{"editor": v})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SubmitEditor saves the form. On success the updated board is returned.
func (h *Handler) SubmitEditor(w http.ResponseWriter, r *http.Request) {
	var form rides.Input
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	c := h.controller(r)
	v, err := c.SubmitEditor(r.Context(), form)
	if err != nil {
		writeError(w, err, map[string]any{"editor": v})
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (h *Handler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller(r).CloseEditor())
}

func (h *Handler) DeleteRide(w http.ResponseWriter, r *http.Request) {
	v, err := h.controller(r).DeleteRide(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SetStatus is the quick status update. On failure the reloaded board comes with the error.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req rides.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	v, err := h.controller(r).SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err, map[string]any{"board": v})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) ExportDay(w http.ResponseWriter, r *http.Request) {
	rows := h.controller(r).DayRows()
	if err := export.Serve(w, export.DayFile, export.DaySheet, rows); err != nil {
		h.log.Error("export day", "error", err)
	}
}

func (h *Handler) ExportCompleted(w http.ResponseWriter, r *http.Request) {
	rows, err := h.controller(r).CompletedRows(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if err := export.Serve(w, export.CompletedFile, export.CompletedSheet, rows); err != nil {
		h.log.Error("export completed", "error", err)
	}
}

// HTTPStatus maps board and ride errors to status codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEditorClosed), errors.Is(err, ErrEditorBusy):
		return http.StatusConflict
	case errors.Is(err, ErrDriverRequired):
		return http.StatusBadRequest
	default:
		return rides.HTTPStatus(err)
	}
}

func writeError(w http.ResponseWriter, err error, extra map[string]any) {
	body := map[string]any{"error": err.Error()}
	var verr *rides.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, HTTPStatus(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
