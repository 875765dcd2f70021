package rides

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ride-planner/internal/dayplan"
	"ride-planner/internal/events"
	"ride-planner/pkg/kafka"
)

// Publisher sends ride change events. *kafka.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Service contains ride business logic and permission rules.
type Service struct {
	repo Repository
	pub  Publisher
	log  *slog.Logger
	now  func() time.Time
}

// NewService creates a ride service. pub may be nil.
func NewService(repo Repository, pub Publisher, log *slog.Logger) *Service {
	return &Service{repo: repo, pub: pub, log: log.With("component", "rides"), now: time.Now}
}

// ListByDate returns the rides on d ordered by departure time.
func (s *Service) ListByDate(ctx context.Context, d dayplan.Date) ([]Ride, error) {
	list, err := s.repo.ListByDate(ctx, d.String())
	if err != nil {
		return nil, err
	}
	SortByDeparture(list)
	return list, nil
}

// ListWeek returns the rides of one driver in the Monday-start week containing anchor.
func (s *Service) ListWeek(ctx context.Context, driverID string, anchor dayplan.Date) ([]Ride, error) {
	week := anchor.Week()
	return s.repo.ListForDriver(ctx, driverID, week[0].String(), week[6].String())
}

// ListCompleted returns every completed ride, newest date first. Planners only.
func (s *Service) ListCompleted(ctx context.Context, actor Actor) ([]Ride, error) {
	if !actor.IsPlanner() {
		return nil, ErrForbidden
	}
	return s.repo.ListByStatus(ctx, StatusCompleted)
}

func (s *Service) Get(ctx context.Context, id string) (*Ride, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new ride. Planners only; the store generates the id.
func (s *Service) Create(ctx context.Context, actor Actor, in Input) (*Ride, error) {
	if !actor.IsPlanner() {
		return nil, ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var r Ride
	in.apply(&r)
	if err := s.repo.Insert(ctx, &r); err != nil {
		return nil, err
	}
	s.publish(kafka.TopicRideSaved, events.KindSaved, actor, r, "")
	return &r, nil
}

// Update replaces the fields of ride id. Chauffeurs may only touch their own rides and
// only status, notes and times; other fields in their input are ignored.
func (s *Service) Update(ctx context.Context, actor Actor, id string, in Input) (*Ride, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsPlanner() {
		if existing.ChauffeurID != actor.DriverID {
			return nil, ErrForbidden
		}
		in = restrictToChauffeur(*existing, in)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	updated := *existing
	in.apply(&updated)
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.publish(kafka.TopicRideSaved, events.KindSaved, actor, updated, existing.Date)
	return &updated, nil
}

func restrictToChauffeur(existing Ride, in Input) Input {
	out := InputFrom(existing)
	out.DepartureTime = in.DepartureTime
	out.ArrivalTime = in.ArrivalTime
	out.Notes = in.Notes
	if in.Status != "" {
		out.Status = in.Status
	}
	return out
}

// SetStatus changes only the status of ride id.
func (s *Service) SetStatus(ctx context.Context, actor Actor, id string, status Status) (*Ride, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if !actor.IsPlanner() {
		existing, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.ChauffeurID != actor.DriverID {
			return nil, ErrForbidden
		}
	}
	r, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.publish(kafka.TopicRideStatusChanged, events.KindStatusChanged, actor, *r, "")
	return r, nil
}

// Delete removes ride id. Planners only.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsPlanner() {
		return ErrForbidden
	}
	r, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.publish(kafka.TopicRideDeleted, events.KindDeleted, actor, *r, "")
	return nil
}

// publish fires the event asynchronously; failures are only logged.
func (s *Service) publish(topic string, kind events.Kind, actor Actor, r Ride, previousDate string) {
	if s.pub == nil {
		return
	}
	ev := events.RideChangedEvent{
		Kind:         kind,
		RideID:       r.ID,
		Date:         r.Date,
		PreviousDate: previousDate,
		ChauffeurID:  r.ChauffeurID,
		Status:       string(r.Status),
		ActorID:      actor.DriverID,
		OccurredAt:   s.now().UTC().Format(time.RFC3339),
	}
	go func() {
		if err := s.pub.Publish(context.Background(), topic, r.ID, ev); err != nil {
			s.log.Error("publish ride event", "topic", topic, "ride_id", r.ID, "error", err)
			return
		}
		s.log.Debug("published ride event", "topic", topic, "ride_id", r.ID)
	}()
}
