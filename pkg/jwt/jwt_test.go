package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ride-planner/pkg/jwt"
)

func init() {
	if err := jwt.Init("test-secret", time.Hour); err != nil {
		panic(err)
	}
}

func TestInit_RequiresSecret(t *testing.T) {
	if err := jwt.Init("", 0); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestGenerateValidate(t *testing.T) {
	tok, err := jwt.Generate("acc-1", "jan@example.com", "chauffeur", "drv-1")
	if err != nil {
		t.Fatal(err)
	}
	c, err := jwt.Validate(tok)
	if err != nil {
		t.Fatal(err)
	}
	if c.UserID != "acc-1" || c.Email != "jan@example.com" || c.Role != "chauffeur" || c.DriverID != "drv-1" {
		t.Errorf("unexpected claims %+v", c)
	}
	if c.SessionID() == "" {
		t.Error("expected a session id")
	}

	other, _ := jwt.Generate("acc-1", "jan@example.com", "chauffeur", "drv-1")
	c2, _ := jwt.Validate(other)
	if c2.SessionID() == c.SessionID() {
		t.Error("each login should get its own session id")
	}
}

func TestValidate_Tampered(t *testing.T) {
	tok, _ := jwt.Generate("acc-1", "a@b.nl", "planner", "drv-1")
	if _, err := jwt.Validate(tok + "x"); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}

func TestMiddleware(t *testing.T) {
	tok, _ := jwt.Generate("acc-1", "a@b.nl", "planner", "drv-1")
	h := jwt.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := jwt.GetClaims(r.Context())
		if c == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if c.Email != "a@b.nl" {
			t.Error("wrong claims in context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusNoContent},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: jwt.CookieName, Value: tok}) }, http.StatusNoContent},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}
