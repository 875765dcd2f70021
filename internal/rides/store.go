package rides

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists rides.
type Repository interface {
	ListByDate(ctx context.Context, date string) ([]Ride, error)
	ListForDriver(ctx context.Context, driverID, from, to string) ([]Ride, error)
	ListByStatus(ctx context.Context, status Status) ([]Ride, error)
	Get(ctx context.Context, id string) (*Ride, error)
	// Insert stores r and fills in the generated ID and CreatedAt.
	Insert(ctx context.Context, r *Ride) error
	Update(ctx context.Context, r *Ride) error
	UpdateStatus(ctx context.Context, id string, status Status) (*Ride, error)
	Delete(ctx context.Context, id string) (*Ride, error)
}

// PGStore is the Postgres Repository.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{db: db} }

const rideColumns = `id::text, to_char(date, 'YYYY-MM-DD'),
	COALESCE(to_char(departure_time, 'HH24:MI:SS'), ''),
	COALESCE(to_char(arrival_time, 'HH24:MI:SS'), ''),
	customer_name, from_location, to_location, COALESCE(notes, ''), status,
	COALESCE(chauffeur_id::text, ''), created_at`

const byDeparture = ` ORDER BY departure_time ASC NULLS FIRST, created_at ASC`

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	err := row.Scan(&r.ID, &r.Date, &r.DepartureTime, &r.ArrivalTime,
		&r.CustomerName, &r.FromLocation, &r.ToLocation, &r.Notes, &r.Status,
		&r.ChauffeurID, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PGStore) list(ctx context.Context, q string, args ...any) ([]Ride, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query rides: %w", err)
	}
	defer rows.Close()

	out := []Ride{}
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PGStore) ListByDate(ctx context.Context, date string) ([]Ride, error) {
	return s.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE date=$1::date`+byDeparture, date)
}

func (s *PGStore) ListForDriver(ctx context.Context, driverID, from, to string) ([]Ride, error) {
	if _, err := uuid.Parse(driverID); err != nil {
		return []Ride{}, nil
	}
	return s.list(ctx, `SELECT `+rideColumns+` FROM rides
		WHERE chauffeur_id=$1::uuid AND date BETWEEN $2::date AND $3::date
		ORDER BY date ASC, departure_time ASC NULLS FIRST, created_at ASC`, driverID, from, to)
}

func (s *PGStore) ListByStatus(ctx context.Context, status Status) ([]Ride, error) {
	return s.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE status=$1
		ORDER BY date DESC, departure_time ASC NULLS FIRST`, string(status))
}

func (s *PGStore) Get(ctx context.Context, id string) (*Ride, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.one(ctx, `SELECT `+rideColumns+` FROM rides WHERE id=$1::uuid`, id)
}

// foreignKeyViolation is the Postgres SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

// checkChauffeur rejects a chauffeur id the uuid column cannot hold.
func checkChauffeur(id string) error {
	if id == "" {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Fields: map[string]string{"chauffeur_id": "uuid"}}
	}
	return nil
}

// writeError maps a reference to an unknown driver to a validation error.
func writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return &ValidationError{Fields: map[string]string{"chauffeur_id": "unknown_driver"}}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *PGStore) Insert(ctx context.Context, r *Ride) error {
	if err := checkChauffeur(r.ChauffeurID); err != nil {
		return err
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO rides (date, departure_time, arrival_time, customer_name, from_location,
		                    to_location, notes, status, chauffeur_id)
		 VALUES ($1::date, NULLIF($2,'')::time, NULLIF($3,'')::time, $4, $5, $6, NULLIF($7,''), $8,
		         NULLIF($9,'')::uuid)
		 RETURNING id::text, created_at`,
		r.Date, r.DepartureTime, r.ArrivalTime, r.CustomerName, r.FromLocation,
		r.ToLocation, r.Notes, string(r.Status), r.ChauffeurID).
		Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return writeError("insert ride", err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, r *Ride) error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return ErrNotFound
	}
	if err := checkChauffeur(r.ChauffeurID); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE rides SET date=$1::date, departure_time=NULLIF($2,'')::time,
		        arrival_time=NULLIF($3,'')::time, customer_name=$4, from_location=$5,
		        to_location=$6, notes=NULLIF($7,''), status=$8, chauffeur_id=NULLIF($9,'')::uuid
		 WHERE id=$10::uuid`,
		r.Date, r.DepartureTime, r.ArrivalTime, r.CustomerName, r.FromLocation,
		r.ToLocation, r.Notes, string(r.Status), r.ChauffeurID, r.ID)
	if err != nil {
		return writeError("update ride", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id string, status Status) (*Ride, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.one(ctx, `UPDATE rides SET status=$1 WHERE id=$2::uuid RETURNING `+rideColumns, string(status), id)
}

func (s *PGStore) Delete(ctx context.Context, id string) (*Ride, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.one(ctx, `DELETE FROM rides WHERE id=$1::uuid RETURNING `+rideColumns, id)
}

func (s *PGStore) one(ctx context.Context, q string, args ...any) (*Ride, error) {
	r, err := scanRide(s.db.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ride query: %w", err)
	}
	return r, nil
}
