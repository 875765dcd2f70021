package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// IdentityProvider verifies email/password credentials and returns the account id.
type IdentityProvider interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// PGAccounts checks credentials against bcrypt hashes in the accounts table.
type PGAccounts struct {
	db *pgxpool.Pool
}

func NewPGAccounts(db *pgxpool.Pool) *PGAccounts { return &PGAccounts{db: db} }

func (a *PGAccounts) Authenticate(ctx context.Context, email, password string) (string, error) {
	var id, hash string
	err := a.db.QueryRow(ctx,
		`SELECT id::text, password_hash FROM accounts WHERE lower(email)=lower($1)`, email).
		Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}
	if !CheckPassword(hash, password) {
		return "", ErrInvalidCredentials
	}
	return id, nil
}

// HashPassword is used when provisioning accounts.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
