package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ride-planner/internal/drivers"
	"ride-planner/pkg/jwt"
	"ride-planner/pkg/validation"
)

// DriverLookup resolves the driver row linked to an email. *drivers.Directory implements it.
type DriverLookup interface {
	ByEmail(ctx context.Context, email string) (*drivers.Driver, error)
}

// Service signs users in and resolves identities for the session guard.
type Service struct {
	idp IdentityProvider
	dir DriverLookup
	log *slog.Logger
}

func NewService(idp IdentityProvider, dir DriverLookup, log *slog.Logger) *Service {
	return &Service{idp: idp, dir: dir, log: log.With("component", "auth")}
}

// Login verifies the credentials, links the account to a driver and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	// Passwords outside the accepted length can never match; skip the bcrypt round.
	if !validation.ValidateEmail(email) || !validation.ValidatePassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	accountID, err := s.idp.Authenticate(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	d, err := s.lookup(ctx, email)
	if err != nil {
		s.log.Warn("account without driver", "account_id", accountID)
		return nil, err
	}

	token, err := jwt.Generate(accountID, email, string(d.Role), d.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.log.Info("signed in", "driver_id", d.ID, "role", d.Role)
	return &LoginResponse{Token: token, Driver: d, Home: Home(*d)}, nil
}

// Resolve maps validated claims to an Identity, re-reading the driver row by email.
func (s *Service) Resolve(ctx context.Context, c *jwt.Claims) (*Identity, error) {
	d, err := s.lookup(ctx, c.Email)
	if err != nil {
		return nil, err
	}
	return &Identity{AccountID: c.UserID, SessionID: c.SessionID(), Driver: *d}, nil
}

func (s *Service) lookup(ctx context.Context, email string) (*drivers.Driver, error) {
	d, err := s.dir.ByEmail(ctx, email)
	if errors.Is(err, drivers.ErrNotFound) {
		return nil, ErrNotProvisioned
	}
	if err != nil {
		return nil, fmt.Errorf("resolve driver: %w", err)
	}
	return d, nil
}
