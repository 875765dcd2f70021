package rides

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"ride-planner/internal/drivers"
	"ride-planner/pkg/validation"
)

// Status is the lifecycle label of a ride. Any status may follow any other.
type Status string

const (
	StatusPlanned   Status = "gepland"
	StatusEnRoute   Status = "onderweg"
	StatusArrived   Status = "aangekomen"
	StatusCompleted Status = "afgerond"
	StatusCancelled Status = "geannuleerd"
)

// Statuses lists every known status in display order.
var Statuses = []Status{StatusPlanned, StatusEnRoute, StatusArrived, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Label is the human form shown in views and exports. Unknown values are shown as-is.
func (s Status) Label() string {
	switch s {
	case StatusPlanned:
		return "Gepland"
	case StatusEnRoute:
		return "Onderweg"
	case StatusArrived:
		return "Aangekomen"
	case StatusCompleted:
		return "Afgerond"
	case StatusCancelled:
		return "Geannuleerd"
	default:
		return string(s)
	}
}

// Color is the badge color for the status.
func (s Status) Color() string {
	switch s {
	case StatusPlanned:
		return "blue"
	case StatusEnRoute:
		return "yellow"
	case StatusArrived:
		return "indigo"
	case StatusCompleted:
		return "green"
	case StatusCancelled:
		return "red"
	default:
		return "gray"
	}
}

var (
	ErrNotFound      = errors.New("ride not found")
	ErrForbidden     = errors.New("not allowed to modify this ride")
	ErrValidation    = errors.New("validation failed")
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidationError lists the fields that are missing or malformed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("required fields missing or invalid: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Ride is one transport assignment.
type Ride struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	DepartureTime string    `json:"departure_time"`
	ArrivalTime   string    `json:"arrival_time"`
	CustomerName  string    `json:"customer_name"`
	FromLocation  string    `json:"from_location"`
	ToLocation    string    `json:"to_location"`
	Notes         string    `json:"notes"`
	Status        Status    `json:"status"`
	ChauffeurID   string    `json:"chauffeur_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Actor is the signed-in driver performing a write.
type Actor struct {
	DriverID string
	Role     drivers.Role
}

func (a Actor) IsPlanner() bool { return a.Role == drivers.RolePlanner }

// ActorFor builds the actor for d.
func ActorFor(d drivers.Driver) Actor { return Actor{DriverID: d.ID, Role: d.Role} }

// Input carries the editable fields of a ride.
type Input struct {
	Date          string `json:"date" validate:"required,isodate"`
	DepartureTime string `json:"departure_time" validate:"required,hhmm"`
	ArrivalTime   string `json:"arrival_time" validate:"required,hhmm"`
	CustomerName  string `json:"customer_name" validate:"required"`
	FromLocation  string `json:"from_location" validate:"required"`
	ToLocation    string `json:"to_location" validate:"required"`
	Notes         string `json:"notes"`
	Status        Status `json:"status" validate:"omitempty,oneof=gepland onderweg aangekomen afgerond geannuleerd"`
	ChauffeurID   string `json:"chauffeur_id" validate:"required"`
}

// Normalize trims whitespace so blank fields count as missing.
func (in Input) Normalize() Input {
	in.Date = strings.TrimSpace(in.Date)
	in.DepartureTime = strings.TrimSpace(in.DepartureTime)
	in.ArrivalTime = strings.TrimSpace(in.ArrivalTime)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.FromLocation = strings.TrimSpace(in.FromLocation)
	in.ToLocation = strings.TrimSpace(in.ToLocation)
	in.Notes = strings.TrimSpace(in.Notes)
	in.ChauffeurID = strings.TrimSpace(in.ChauffeurID)
	return in
}

// Validate returns a *ValidationError when a required field is empty or malformed.
func (in Input) Validate() error {
	fields, err := validation.FieldErrors(in.Normalize())
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// InputFrom pre-seeds an Input from a stored ride, times cut to HH:MM for editing.
func InputFrom(r Ride) Input {
	return Input{
		Date:          r.Date,
		DepartureTime: ShortClock(r.DepartureTime),
		ArrivalTime:   ShortClock(r.ArrivalTime),
		CustomerName:  r.CustomerName,
		FromLocation:  r.FromLocation,
		ToLocation:    r.ToLocation,
		Notes:         r.Notes,
		Status:        r.Status,
		ChauffeurID:   r.ChauffeurID,
	}
}

// apply copies in onto r with the store's time format. Status defaults to gepland.
func (in Input) apply(r *Ride) {
	in = in.Normalize()
	r.Date = in.Date
	r.DepartureTime = NormalizeClock(in.DepartureTime)
	r.ArrivalTime = NormalizeClock(in.ArrivalTime)
	r.CustomerName = in.CustomerName
	r.FromLocation = in.FromLocation
	r.ToLocation = in.ToLocation
	r.Notes = in.Notes
	r.Status = in.Status
	if r.Status == "" {
		r.Status = StatusPlanned
	}
	r.ChauffeurID = in.ChauffeurID
}

// NormalizeClock turns "HH:MM" into "HH:MM:SS". Other values pass through.
func NormalizeClock(s string) string {
	if len(s) == 5 && s[2] == ':' {
		return s + ":00"
	}
	return s
}

// ShortClock cuts a stored time down to "HH:MM".
func ShortClock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

// SortByDeparture orders rides by departure time, empty first. Ties keep their order.
func SortByDeparture(list []Ride) {
	slices.SortStableFunc(list, func(a, b Ride) int {
		return strings.Compare(a.DepartureTime, b.DepartureTime)
	})
}
