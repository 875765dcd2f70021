package board

import (
	"context"
	"sync"
	"time"

	"ride-planner/internal/drivers"
)

// Factory builds a fresh controller for a signed-in driver.
type Factory func(me drivers.Driver) *Controller

type entry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry keeps one controller per session id. Idle sessions are dropped after ttl.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
	factory Factory
}

// NewRegistry creates a registry. A ttl of zero keeps sessions until Drop.
func NewRegistry(ttl time.Duration, factory Factory) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
		factory: factory,
	}
}

// Get returns the controller for sessionID, creating it when missing, expired, or owned by
// another driver. created reports whether the caller should Load it.
func (r *Registry) Get(sessionID string, me drivers.Driver) (ctrl *Controller, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[sessionID]; ok && !r.expired(e, now) && e.ctrl.me.ID == me.ID && e.ctrl.me.Role == me.Role {
		e.lastSeen = now
		return e.ctrl, false
	}
	e := &entry{ctrl: r.factory(me), lastSeen: now}
	r.entries[sessionID] = e
	return e.ctrl, true
}

// Drop forgets the controller of sessionID.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes idle controllers and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, e := range r.entries {
		if r.expired(e, now) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.lastSeen) > r.ttl
}
