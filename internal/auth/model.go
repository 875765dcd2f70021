package auth

import (
	"errors"

	"ride-planner/internal/drivers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotProvisioned     = errors.New("no linked driver found for this account")
)

// Identity is the authenticated caller resolved to a driver row.
type Identity struct {
	AccountID string
	SessionID string
	Driver    drivers.Driver
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on login and by /auth/me (without token).
type LoginResponse struct {
	Token  string          `json:"token,omitempty"`
	Driver *drivers.Driver `json:"driver"`
	Home   string          `json:"home"`
}

// Home is where a driver lands after login: planners get the board,
// chauffeurs their own week.
func Home(d drivers.Driver) string {
	if d.IsPlanner() {
		return "/board"
	}
	return "/board/week"
}
