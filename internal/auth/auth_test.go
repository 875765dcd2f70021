package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ride-planner/internal/auth"
	"ride-planner/internal/drivers"
	"ride-planner/pkg/jwt"
	"ride-planner/pkg/logger"
)

func init() {
	if err := jwt.Init("auth-test-secret", time.Hour); err != nil {
		panic(err)
	}
}

type fakeIdP struct {
	hashes map[string]string // email -> bcrypt hash
	calls  int
}

func (f *fakeIdP) Authenticate(ctx context.Context, email, password string) (string, error) {
	f.calls++
	hash, ok := f.hashes[strings.ToLower(email)]
	if !ok || !auth.CheckPassword(hash, password) {
		return "", auth.ErrInvalidCredentials
	}
	return "acc-" + email, nil
}

type fakeLookup map[string]drivers.Driver

func (f fakeLookup) ByEmail(ctx context.Context, email string) (*drivers.Driver, error) {
	d, ok := f[strings.ToLower(email)]
	if !ok {
		return nil, drivers.ErrNotFound
	}
	return &d, nil
}

func newService(t *testing.T) *auth.Service {
	t.Helper()
	hash, err := auth.HashPassword("geheim123")
	if err != nil {
		t.Fatal(err)
	}
	idp := &fakeIdP{hashes: map[string]string{
		"anna@ritten.nl":  hash,
		"jan@ritten.nl":   hash,
		"ghost@ritten.nl": hash,
	}}
	lookup := fakeLookup{
		"anna@ritten.nl": {ID: "d-anna", Name: "Anna", Role: drivers.RolePlanner, Email: "anna@ritten.nl"},
		"jan@ritten.nl":  {ID: "d-jan", Name: "Jan", Role: drivers.RoleChauffeur, Email: "jan@ritten.nl"},
	}
	return auth.NewService(idp, lookup, logger.Discard())
}

func TestLogin_ShortPasswordSkipsAccountCheck(t *testing.T) {
	hash, err := auth.HashPassword("geheim123")
	if err != nil {
		t.Fatal(err)
	}
	idp := &fakeIdP{hashes: map[string]string{"anna@ritten.nl": hash}}
	svc := auth.NewService(idp, fakeLookup{}, logger.Discard())

	for _, pw := range []string{"", "abc", strings.Repeat("x", 101)} {
		if _, err := svc.Login(context.Background(), auth.LoginRequest{Email: "anna@ritten.nl", Password: pw}); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Errorf("password of %d chars: err = %v", len(pw), err)
		}
	}
	if idp.calls != 0 {
		t.Errorf("account store consulted %d times", idp.calls)
	}
}

func TestLogin(t *testing.T) {
	svc := newService(t)
	tests := []struct {
		name     string
		req      auth.LoginRequest
		wantErr  error
		wantHome string
	}{
		{"planner", auth.LoginRequest{Email: "anna@ritten.nl", Password: "geheim123"}, nil, "/board"},
		{"chauffeur", auth.LoginRequest{Email: " Jan@ritten.nl ", Password: "geheim123"}, nil, "/board/week"},
		{"wrong password", auth.LoginRequest{Email: "anna@ritten.nl", Password: "verkeerd1"}, auth.ErrInvalidCredentials, ""},
		{"unknown account", auth.LoginRequest{Email: "who@ritten.nl", Password: "geheim123"}, auth.ErrInvalidCredentials, ""},
		{"malformed email", auth.LoginRequest{Email: "anna", Password: "geheim123"}, auth.ErrInvalidCredentials, ""},
		{"not provisioned", auth.LoginRequest{Email: "ghost@ritten.nl", Password: "geheim123"}, auth.ErrNotProvisioned, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if resp.Home != tt.wantHome {
				t.Errorf("Home = %q, want %q", resp.Home, tt.wantHome)
			}
			c, err := jwt.Validate(resp.Token)
			if err != nil {
				t.Fatal(err)
			}
			if c.DriverID != resp.Driver.ID || c.Role != string(resp.Driver.Role) {
				t.Errorf("claims %+v do not match driver %+v", c, resp.Driver)
			}
		})
	}
}

func TestGuard(t *testing.T) {
	svc := newService(t)
	var seen *auth.Identity
	h := jwt.OptionalAuth(auth.Guard(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	janTok, _ := jwt.Generate("acc-jan", "jan@ritten.nl", "chauffeur", "d-jan")
	ghostTok, _ := jwt.Generate("acc-ghost", "ghost@ritten.nl", "chauffeur", "")

	tests := []struct {
		name     string
		token    string
		accept   string
		status   int
		location string
	}{
		{"api without session", "", "application/json", http.StatusUnauthorized, ""},
		{"browser without session", "", "text/html", http.StatusSeeOther, auth.LoginPath},
		{"unprovisioned", ghostTok, "", http.StatusForbidden, ""},
		{"ok", janTok, "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/board", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.location != "" && w.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q", w.Header().Get("Location"))
			}
			if tt.status == http.StatusOK && (seen == nil || seen.Driver.ID != "d-jan" || seen.SessionID == "") {
				t.Errorf("identity = %+v", seen)
			}
			if tt.status != http.StatusOK && seen != nil {
				t.Error("next handler must not run")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := auth.RequireRole(drivers.RolePlanner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for role, want := range map[drivers.Role]int{
		drivers.RolePlanner:   http.StatusOK,
		drivers.RoleChauffeur: http.StatusForbidden,
	} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{Driver: drivers.Driver{Role: role}}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != want {
			t.Errorf("role %s: status = %d, want %d", role, w.Code, want)
		}
	}
}

func TestHandler_LoginLogout(t *testing.T) {
	var loggedOut string
	h := auth.NewHandler(newService(t), false, func(sid string) { loggedOut = sid })
	srv := httptest.NewServer(jwt.OptionalAuth(h.Routes()))
	defer srv.Close()

	body, _ := json.Marshal(auth.LoginRequest{Email: "anna@ritten.nl", Password: "geheim123"})
	res, err := http.Post(srv.URL+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", res.StatusCode)
	}
	var cookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == jwt.CookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("session cookie missing or not HttpOnly: %+v", cookie)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	req.AddCookie(cookie)
	me, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var meBody auth.LoginResponse
	json.NewDecoder(me.Body).Decode(&meBody)
	me.Body.Close()
	if meBody.Home != "/board" || meBody.Driver == nil || meBody.Driver.ID != "d-anna" {
		t.Errorf("/me = %+v", meBody)
	}

	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/logout", nil)
	req.AddCookie(cookie)
	out, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	out.Body.Close()
	claims, _ := jwt.Validate(cookie.Value)
	if loggedOut != claims.SessionID() {
		t.Errorf("logout hook got %q, want %q", loggedOut, claims.SessionID())
	}

	bad, _ := json.Marshal(auth.LoginRequest{Email: "ghost@ritten.nl", Password: "geheim123"})
	res3, err := http.Post(srv.URL+"/login", "application/json", bytes.NewReader(bad))
	if err != nil {
		t.Fatal(err)
	}
	res3.Body.Close()
	if res3.StatusCode != http.StatusForbidden {
		t.Errorf("unprovisioned login status = %d, want 403", res3.StatusCode)
	}
}
