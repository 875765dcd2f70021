package board_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ride-planner/internal/auth"
	"ride-planner/internal/board"
	"ride-planner/internal/drivers"
	"ride-planner/internal/rides"
	"ride-planner/internal/rides/ridestest"
	"ride-planner/pkg/logger"
)

func newBoardServer(t *testing.T) http.Handler {
	t.Helper()
	repo := ridestest.NewMemory(
		ride("a", "2023-12-31", "10:00:00", rides.StatusPlanned, "d-jan"),
		ride("b", "2023-12-31", "", rides.StatusPlanned, "d-piet"),
	)
	svc := rides.NewService(repo, nil, logger.Discard())
	reg := board.NewRegistry(time.Hour, func(me drivers.Driver) *board.Controller {
		return board.NewController(me, svc, staticDrivers{anna, jan, piet}, logger.Discard(), board.Options{
			Now: func() time.Time { return nye },
		})
	})
	return board.NewHandler(reg, logger.Discard()).Routes()
}

func call(t *testing.T, h http.Handler, who drivers.Driver, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r = r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{SessionID: "sess-" + who.ID, Driver: who}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) board.View {
	t.Helper()
	var v board.View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHandler_PlannerFlow(t *testing.T) {
	h := newBoardServer(t)

	w := call(t, h, anna, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET / = %d", w.Code)
	}
	if v := decodeView(t, w); len(v.Columns) != 2 || v.Date.String() != "2023-12-31" {
		t.Errorf("board = %+v", v)
	}

	w = call(t, h, anna, http.MethodPost, "/shift", board.ShiftRequest{Days: 1})
	if v := decodeView(t, w); v.Date.String() != "2024-01-01" {
		t.Errorf("after shift = %s", v.Date)
	}
	w = call(t, h, anna, http.MethodPost, "/today", nil)
	if v := decodeView(t, w); v.Date.String() != "2023-12-31" {
		t.Errorf("after today = %s", v.Date)
	}
	if w := call(t, h, anna, http.MethodPost, "/date", map[string]string{"date": "morgen"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d", w.Code)
	}

	if w := call(t, h, anna, http.MethodPut, "/editor", filledForm()); w.Code != http.StatusConflict {
		t.Errorf("submit with closed editor = %d", w.Code)
	}
	if w := call(t, h, anna, http.MethodPost, "/editor", nil); w.Code != http.StatusOK {
		t.Fatalf("open editor = %d", w.Code)
	}
	form := filledForm()
	form.Date = "2023-12-31"
	form.CustomerName = ""
	w = call(t, h, anna, http.MethodPut, "/editor", form)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid submit = %d", w.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
		Editor board.EditorView  `json:"editor"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	if _, ok := body.Fields["customer_name"]; !ok || body.Editor.Phase != board.PhaseOpen {
		t.Errorf("invalid submit body = %+v", body)
	}

	form.CustomerName = "Mevr. Jansen"
	w = call(t, h, anna, http.MethodPut, "/editor", form)
	if w.Code != http.StatusOK {
		t.Fatalf("submit = %d %s", w.Code, w.Body.String())
	}
	if v := decodeView(t, w); len(v.Columns[0].Rides) != 2 || v.Editor.Phase != board.PhaseClosed {
		t.Errorf("after submit = %+v", v)
	}

	if w := call(t, h, anna, http.MethodDelete, "/rides/b", nil); w.Code != http.StatusOK {
		t.Errorf("delete = %d", w.Code)
	}

	w = call(t, h, anna, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Disposition") != `attachment; filename="ritten.xlsx"` {
		t.Errorf("export = %d %v", w.Code, w.Header())
	}
	w = call(t, h, anna, http.MethodGet, "/export/completed", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Disposition") != `attachment; filename="afgeronde_ritten.xlsx"` {
		t.Errorf("completed export = %d %v", w.Code, w.Header())
	}
}

func TestHandler_ChauffeurFlow(t *testing.T) {
	h := newBoardServer(t)

	w := call(t, h, jan, http.MethodGet, "/", nil)
	v := decodeView(t, w)
	if len(v.Rides) != 2 || v.Columns != nil {
		t.Fatalf("chauffeur board = %+v", v)
	}

	if w := call(t, h, jan, http.MethodGet, "/week", nil); w.Code != http.StatusOK {
		t.Errorf("week = %d", w.Code)
	}
	if w := call(t, h, jan, http.MethodDelete, "/rides/a", nil); w.Code != http.StatusForbidden {
		t.Errorf("chauffeur delete = %d", w.Code)
	}
	if w := call(t, h, jan, http.MethodGet, "/export/completed", nil); w.Code != http.StatusForbidden {
		t.Errorf("chauffeur completed export = %d", w.Code)
	}
	if w := call(t, h, jan, http.MethodPost, "/editor", nil); w.Code != http.StatusForbidden {
		t.Errorf("chauffeur new ride = %d", w.Code)
	}
	if w := call(t, h, jan, http.MethodPatch, "/rides/b/status", rides.StatusRequest{Status: rides.StatusEnRoute}); w.Code != http.StatusForbidden {
		t.Errorf("status on other's ride = %d", w.Code)
	}

	w = call(t, h, jan, http.MethodPatch, "/rides/a/status", rides.StatusRequest{Status: rides.StatusArrived})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	for _, c := range decodeView(t, w).Rides {
		if c.ID == "a" && (c.StatusLabel != "Aangekomen" || c.StatusColor != "indigo" || c.Pending) {
			t.Errorf("card after status = %+v", c)
		}
	}

	if w := call(t, h, jan, http.MethodPatch, "/rides/a/status", rides.StatusRequest{Status: "klaar"}); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid status = %d", w.Code)
	}
}

func TestHandler_WeekPlannerNeedsDriver(t *testing.T) {
	h := newBoardServer(t)
	if w := call(t, h, anna, http.MethodGet, "/week", nil); w.Code != http.StatusBadRequest {
		t.Errorf("planner week without driver = %d", w.Code)
	}
	if w := call(t, h, anna, http.MethodGet, "/week?driver=d-jan&date=2023-12-31", nil); w.Code != http.StatusOK {
		t.Errorf("planner week = %d", w.Code)
	}
	if w := call(t, h, anna, http.MethodGet, "/week?driver=d-jan&date=zondag", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad week date = %d", w.Code)
	}
}
