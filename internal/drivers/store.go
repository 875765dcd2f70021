package drivers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the drivers table.
type Repository interface {
	All(ctx context.Context) ([]Driver, error)
	ByID(ctx context.Context, id string) (*Driver, error)
	ByEmail(ctx context.Context, email string) (*Driver, error)
}

// PGStore is the Postgres Repository.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{db: db} }

const driverColumns = `id::text, name, role, email`

func (s *PGStore) All(ctx context.Context) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query drivers: %w", err)
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Role, &d.Email); err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) ByID(ctx context.Context, id string) (*Driver, error) {
	return s.one(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id::text=$1`, id)
}

func (s *PGStore) ByEmail(ctx context.Context, email string) (*Driver, error) {
	return s.one(ctx, `SELECT `+driverColumns+` FROM drivers WHERE lower(email)=lower($1)`, email)
}

func (s *PGStore) one(ctx context.Context, q string, arg string) (*Driver, error) {
	var d Driver
	err := s.db.QueryRow(ctx, q, arg).Scan(&d.ID, &d.Name, &d.Role, &d.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query driver: %w", err)
	}
	return &d, nil
}
