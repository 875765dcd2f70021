// Package board holds the per-session view state behind the planner board and the
// chauffeur day and week lists.
package board

import (
	"slices"

	"ride-planner/internal/dayplan"
	"ride-planner/internal/drivers"
	"ride-planner/internal/rides"
)

// State is the in-memory cache for one selected date. It only changes through Reduce.
type State struct {
	Date    dayplan.Date
	Drivers []drivers.Driver
	Rides   []rides.Ride
	Pending map[string]Pending
	Seq     uint64
	Loaded  bool
	Err     string
}

// Pending is a status change applied locally but not yet confirmed by the store.
// Ticket numbers the requests for one ride; the highest is the one the user made last.
type Pending struct {
	Status      rides.Status
	Outstanding int
	Ticket      uint64
	Base        rides.Status

	settled       *rides.Ride
	settledTicket uint64
}

// Action is a discrete change to State.
type Action interface{ isAction() }

type (
	// SelectDate switches the selection; the ride list of the previous date is discarded.
	SelectDate struct{ Date dayplan.Date }
	// RidesRequested records the fetch that is now current.
	RidesRequested struct {
		Seq  uint64
		Date dayplan.Date
	}
	// RidesLoaded is applied only when Seq and Date still match the current fetch.
	RidesLoaded struct {
		Seq   uint64
		Date  dayplan.Date
		Rides []rides.Ride
	}
	// RidesFailed keeps the prior list.
	RidesFailed struct {
		Seq  uint64
		Date dayplan.Date
		Err  error
	}
	DriversLoaded   struct{ Drivers []drivers.Driver }
	RideSaved       struct{ Ride rides.Ride }
	RideDeleted     struct{ ID string }
	StatusRequested struct {
		ID     string
		Status rides.Status
	}
	// StatusConfirmed and StatusFailed carry the Ticket handed out by StatusRequested.
	StatusConfirmed struct {
		Ride   rides.Ride
		Ticket uint64
	}
	StatusFailed struct {
		ID     string
		Ticket uint64
		Err    error
	}
)

func (SelectDate) isAction()      {}
func (RidesRequested) isAction()  {}
func (RidesLoaded) isAction()     {}
func (RidesFailed) isAction()     {}
func (DriversLoaded) isAction()   {}
func (RideSaved) isAction()       {}
func (RideDeleted) isAction()     {}
func (StatusRequested) isAction() {}
func (StatusConfirmed) isAction() {}
func (StatusFailed) isAction()    {}

// NewState starts an empty state on d.
func NewState(d dayplan.Date) State {
	return State{Date: d, Pending: map[string]Pending{}}
}

// Current reports whether a fetch tagged seq for d is still the one the state waits for.
func (s State) Current(seq uint64, d dayplan.Date) bool {
	return seq == s.Seq && d.Equal(s.Date)
}

// Reduce returns the state after a. s is not modified.
func Reduce(s State, a Action) State {
	s.Rides = slices.Clone(s.Rides)
	s.Pending = clonePending(s.Pending)

	switch a := a.(type) {
	case SelectDate:
		if a.Date.IsZero() || a.Date.Equal(s.Date) {
			return s
		}
		s.Date = a.Date
		s.Rides = nil
		s.Loaded = false
		s.Err = ""
		s.Pending = map[string]Pending{}

	case RidesRequested:
		if a.Seq > s.Seq && a.Date.Equal(s.Date) {
			s.Seq = a.Seq
		}

	case RidesLoaded:
		if !s.Current(a.Seq, a.Date) {
			return s
		}
		day := a.Date.String()
		list := make([]rides.Ride, 0, len(a.Rides))
		for _, r := range a.Rides {
			if r.Date != day {
				continue
			}
			if p, ok := s.Pending[r.ID]; ok {
				r.Status = p.Status
			}
			list = append(list, r)
		}
		rides.SortByDeparture(list)
		s.Rides = list
		s.Loaded = true
		s.Err = ""

	case RidesFailed:
		if !s.Current(a.Seq, a.Date) {
			return s
		}
		s.Err = errText(a.Err)

	case DriversLoaded:
		s.Drivers = slices.Clone(a.Drivers)

	case RideSaved:
		s.Rides = remove(s.Rides, a.Ride.ID)
		if a.Ride.Date == s.Date.String() {
			s.Rides = append(s.Rides, a.Ride)
			rides.SortByDeparture(s.Rides)
		}

	case RideDeleted:
		s.Rides = remove(s.Rides, a.ID)
		delete(s.Pending, a.ID)

	case StatusRequested:
		p, ok := s.Pending[a.ID]
		i := index(s.Rides, a.ID)
		if !ok && i >= 0 {
			p.Base = s.Rides[i].Status
		}
		p.Status = a.Status
		p.Outstanding++
		p.Ticket++
		s.Pending[a.ID] = p
		if i >= 0 {
			s.Rides[i].Status = a.Status
		}

	case StatusConfirmed:
		p, ok := s.Pending[a.Ride.ID]
		if !ok {
			if i := index(s.Rides, a.Ride.ID); i >= 0 {
				s.Rides[i] = a.Ride
			}
			return s
		}
		if p.settled == nil || a.Ticket > p.settledTicket {
			r := a.Ride
			p.settled, p.settledTicket = &r, a.Ticket
		}
		s.settle(a.Ride.ID, p)

	case StatusFailed:
		s.Err = errText(a.Err)
		if p, ok := s.Pending[a.ID]; ok {
			s.settle(a.ID, p)
		}
	}
	return s
}

// settle counts one returned call for ride id. While calls remain the tentative status
// stays. After the last one the ride takes the result of the newest confirmed request,
// or its status from before the first request when every call failed.
func (s *State) settle(id string, p Pending) {
	p.Outstanding--
	if p.Outstanding > 0 {
		s.Pending[id] = p
		return
	}
	delete(s.Pending, id)
	i := index(s.Rides, id)
	switch {
	case i < 0:
	case p.settled != nil:
		s.Rides[i] = *p.settled
	case p.Base != "":
		s.Rides[i].Status = p.Base
	}
}

// IsPending reports whether ride id has an unconfirmed status change.
func (s State) IsPending(id string) bool {
	_, ok := s.Pending[id]
	return ok
}

// Ride looks up a ride of the current list by id.
func (s State) Ride(id string) (rides.Ride, bool) {
	if i := index(s.Rides, id); i >= 0 {
		return s.Rides[i], true
	}
	return rides.Ride{}, false
}

func index(list []rides.Ride, id string) int {
	return slices.IndexFunc(list, func(r rides.Ride) bool { return r.ID == id })
}

func remove(list []rides.Ride, id string) []rides.Ride {
	return slices.DeleteFunc(list, func(r rides.Ride) bool { return r.ID == id })
}

func clonePending(in map[string]Pending) map[string]Pending {
	out := make(map[string]Pending, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
