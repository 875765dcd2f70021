// Package ridestest provides an in-memory rides.Repository for tests.
package ridestest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"ride-planner/internal/rides"
)

// Memory is a goroutine-safe in-memory repository. Set Err to make every call fail.
type Memory struct {
	mu     sync.Mutex
	rides  []rides.Ride
	nextID int
	Err    error
	Calls  map[string]int
}

func NewMemory(seed ...rides.Ride) *Memory {
	m := &Memory{Calls: map[string]int{}}
	m.rides = append(m.rides, seed...)
	return m
}

// SetErr changes the failure injected into every call.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// CallCount reports how often method was invoked.
func (m *Memory) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

// Writes is the total number of mutating calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls["Insert"] + m.Calls["Update"] + m.Calls["UpdateStatus"] + m.Calls["Delete"]
}

func (m *Memory) begin(method string) error {
	m.Calls[method]++
	return m.Err
}

func (m *Memory) filter(keep func(rides.Ride) bool) []rides.Ride {
	out := []rides.Ride{}
	for _, r := range m.rides {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *Memory) ListByDate(ctx context.Context, date string) ([]rides.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListByDate"); err != nil {
		return nil, err
	}
	return m.filter(func(r rides.Ride) bool { return r.Date == date }), nil
}

func (m *Memory) ListForDriver(ctx context.Context, driverID, from, to string) ([]rides.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListForDriver"); err != nil {
		return nil, err
	}
	return m.filter(func(r rides.Ride) bool {
		return r.ChauffeurID == driverID && r.Date >= from && r.Date <= to
	}), nil
}

func (m *Memory) ListByStatus(ctx context.Context, status rides.Status) ([]rides.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListByStatus"); err != nil {
		return nil, err
	}
	out := m.filter(func(r rides.Ride) bool { return r.Status == status })
	slices.SortStableFunc(out, func(a, b rides.Ride) int { return strings.Compare(b.Date, a.Date) })
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (*rides.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Get"); err != nil {
		return nil, err
	}
	if i := m.index(id); i >= 0 {
		r := m.rides[i]
		return &r, nil
	}
	return nil, rides.ErrNotFound
}

func (m *Memory) Insert(ctx context.Context, r *rides.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Insert"); err != nil {
		return err
	}
	m.nextID++
	r.ID = fmt.Sprintf("ride-%d", m.nextID)
	r.CreatedAt = time.Date(2024, 1, 1, 0, 0, m.nextID, 0, time.UTC)
	m.rides = append(m.rides, *r)
	return nil
}

func (m *Memory) Update(ctx context.Context, r *rides.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Update"); err != nil {
		return err
	}
	i := m.index(r.ID)
	if i < 0 {
		return rides.ErrNotFound
	}
	m.rides[i] = *r
	return nil
}

func (m *Memory) UpdateStatus(ctx context.Context, id string, status rides.Status) (*rides.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpdateStatus"); err != nil {
		return nil, err
	}
	i := m.index(id)
	if i < 0 {
		return nil, rides.ErrNotFound
	}
	m.rides[i].Status = status
	r := m.rides[i]
	return &r, nil
}

func (m *Memory) Delete(ctx context.Context, id string) (*rides.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Delete"); err != nil {
		return nil, err
	}
	i := m.index(id)
	if i < 0 {
		return nil, rides.ErrNotFound
	}
	r := m.rides[i]
	m.rides = append(m.rides[:i], m.rides[i+1:]...)
	return &r, nil
}

// Snapshot returns a copy of the stored rides.
func (m *Memory) Snapshot() []rides.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rides)
}

func (m *Memory) index(id string) int {
	for i, r := range m.rides {
		if r.ID == id {
			return i
		}
	}
	return -1
}
