package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ride-planner/internal/dayplan"
	"ride-planner/internal/drivers"
	"ride-planner/internal/export"
	"ride-planner/internal/rides"
)

// ErrDriverRequired is returned when a planner asks for a week without naming a driver.
var ErrDriverRequired = errors.New("driver is required")

// RideService is the part of rides.Service the board uses.
type RideService interface {
	ListByDate(ctx context.Context, d dayplan.Date) ([]rides.Ride, error)
	ListWeek(ctx context.Context, driverID string, anchor dayplan.Date) ([]rides.Ride, error)
	ListCompleted(ctx context.Context, actor rides.Actor) ([]rides.Ride, error)
	Get(ctx context.Context, id string) (*rides.Ride, error)
	Create(ctx context.Context, actor rides.Actor, in rides.Input) (*rides.Ride, error)
	Update(ctx context.Context, actor rides.Actor, id string, in rides.Input) (*rides.Ride, error)
	SetStatus(ctx context.Context, actor rides.Actor, id string, status rides.Status) (*rides.Ride, error)
	Delete(ctx context.Context, actor rides.Actor, id string) error
}

// DriverSource lists the driver directory.
type DriverSource interface {
	List(ctx context.Context) ([]drivers.Driver, error)
}

// Options tune a controller. Zero values fall back to defaults.
type Options struct {
	Retries  int
	Backoff  time.Duration
	Now      func() time.Time
	Location *time.Location
}

// View is what GET /board returns.
type View struct {
	Date        dayplan.Date `json:"date"`
	DisplayDate string       `json:"display_date"`
	IsToday     bool         `json:"is_today"`
	Role        drivers.Role `json:"role"`
	Columns     []Column     `json:"columns,omitempty"`
	Rides       []Card       `json:"rides,omitempty"`
	Editor      EditorView   `json:"editor"`
	Loaded      bool         `json:"loaded"`
	Error       string       `json:"error,omitempty"`
}

// WeekView is what GET /board/week returns.
type WeekView struct {
	From     dayplan.Date `json:"from"`
	To       dayplan.Date `json:"to"`
	DriverID string       `json:"driver_id"`
	Days     []DayColumn  `json:"days"`
	Error    string       `json:"error,omitempty"`
}

// Controller owns the board state of one signed-in driver. Store calls run outside the lock.
type Controller struct {
	me      drivers.Driver
	svc     RideService
	dir     DriverSource
	log     *slog.Logger
	retries int
	backoff time.Duration

	mu     sync.Mutex
	nav    *dayplan.Navigator
	state  State
	editor Editor
	week   *WeekView
}

// NewController starts a controller on today's date. Call Load to fetch the first day.
func NewController(me drivers.Driver, svc RideService, dir DriverSource, log *slog.Logger, opts Options) *Controller {
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	nav := dayplan.NewNavigator(opts.Now, opts.Location)
	return &Controller{
		me:      me,
		svc:     svc,
		dir:     dir,
		log:     log.With("component", "board", "driver_id", me.ID),
		retries: opts.Retries,
		backoff: opts.Backoff,
		nav:     nav,
		state:   NewState(nav.Selected()),
	}
}

func (c *Controller) Driver() drivers.Driver { return c.me }

func (c *Controller) actor() rides.Actor { return rides.ActorFor(c.me) }

// Load fetches the driver directory and the rides of the selected date.
func (c *Controller) Load(ctx context.Context) error {
	derr := c.loadDrivers(ctx)
	rerr := c.loadRides(ctx)
	return errors.Join(derr, rerr)
}

// Refresh re-fetches the rides of the selected date.
func (c *Controller) Refresh(ctx context.Context) error { return c.loadRides(ctx) }

// Shift moves the selection by days and fetches the new date.
func (c *Controller) Shift(ctx context.Context, days int) (View, error) {
	return c.navigate(ctx, func(n *dayplan.Navigator) dayplan.Date { return n.Shift(days) })
}

// Today jumps back to the current date.
func (c *Controller) Today(ctx context.Context) (View, error) {
	return c.navigate(ctx, func(n *dayplan.Navigator) dayplan.Date { return n.GoToday() })
}

// Select jumps to d.
func (c *Controller) Select(ctx context.Context, d dayplan.Date) (View, error) {
	return c.navigate(ctx, func(n *dayplan.Navigator) dayplan.Date { return n.Select(d) })
}

func (c *Controller) navigate(ctx context.Context, move func(*dayplan.Navigator) dayplan.Date) (View, error) {
	c.mu.Lock()
	d := move(c.nav)
	c.state = Reduce(c.state, SelectDate{Date: d})
	c.mu.Unlock()

	err := c.loadRides(ctx)
	return c.View(), err
}

func (c *Controller) loadDrivers(ctx context.Context) error {
	list, err := retry(ctx, c.retries, c.backoff, nil, func(ctx context.Context) ([]drivers.Driver, error) {
		return c.dir.List(ctx)
	})
	if err != nil {
		c.log.Warn("load drivers failed, keeping previous list", "error", err)
		return err
	}
	c.mu.Lock()
	c.state = Reduce(c.state, DriversLoaded{Drivers: list})
	c.mu.Unlock()
	return nil
}

// loadRides fetches the selected date. A response for a superseded selection is dropped.
func (c *Controller) loadRides(ctx context.Context) error {
	c.mu.Lock()
	d := c.state.Date
	seq := c.state.Seq + 1
	c.state = Reduce(c.state, RidesRequested{Seq: seq, Date: d})
	c.mu.Unlock()

	stale := func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return !c.state.Current(seq, d)
	}
	list, err := retry(ctx, c.retries, c.backoff, stale, func(ctx context.Context) ([]rides.Ride, error) {
		return c.svc.ListByDate(ctx, d)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Current(seq, d) {
		c.log.Debug("discarding stale rides response", "date", d.String(), "seq", seq)
		return nil
	}
	if err != nil {
		c.state = Reduce(c.state, RidesFailed{Seq: seq, Date: d, Err: err})
		c.log.Warn("load rides failed, keeping previous list", "date", d.String(), "error", err)
		return err
	}
	c.state = Reduce(c.state, RidesLoaded{Seq: seq, Date: d, Rides: list})
	return nil
}

// retry calls fn once plus up to n more times, only after fn reports an error.
// It gives up early when stop reports true.
func retry[T any](ctx context.Context, n int, backoff time.Duration, stop func() bool, fn func(context.Context) (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for attempt := 0; attempt <= n; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(backoff * time.Duration(attempt)):
			}
			if stop != nil && stop() {
				return out, err
			}
		}
		out, err = fn(ctx)
		if err == nil {
			return out, nil
		}
	}
	return out, err
}

// View renders the selected date for the controller's role.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	s := c.state
	v := View{
		Date:        s.Date,
		DisplayDate: s.Date.LongNL(),
		IsToday:     s.Date.Equal(c.nav.Today()),
		Role:        c.me.Role,
		Editor:      c.editor.View(),
		Loaded:      s.Loaded,
		Error:       s.Err,
	}
	if c.me.IsPlanner() {
		v.Columns = plannerBoard(s.Drivers, s.Rides, s.IsPending)
	} else {
		v.Rides = driverDay(s.Rides, c.me.ID, s.IsPending)
	}
	return v
}

// Week returns the Monday-start week around anchor for driverID. Chauffeurs always get
// their own week; a zero anchor means the selected date. On a failed load the last week
// fetched for the same driver and week is returned with Error set.
func (c *Controller) Week(ctx context.Context, driverID string, anchor dayplan.Date) (WeekView, error) {
	if !c.me.IsPlanner() {
		driverID = c.me.ID
	} else if driverID == "" {
		return WeekView{}, ErrDriverRequired
	}
	c.mu.Lock()
	if anchor.IsZero() {
		anchor = c.nav.Selected()
	}
	c.mu.Unlock()

	week := anchor.Week()
	list, err := retry(ctx, c.retries, c.backoff, nil, func(ctx context.Context) ([]rides.Ride, error) {
		return c.svc.ListWeek(ctx, driverID, anchor)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn("load week failed", "driver", driverID, "from", week[0].String(), "error", err)
		if prev := c.week; prev != nil && prev.DriverID == driverID && prev.From.Equal(week[0]) {
			stale := *prev
			stale.Error = err.Error()
			return stale, nil
		}
		return WeekView{}, err
	}
	v := WeekView{From: week[0], To: week[6], DriverID: driverID, Days: DriverWeek(list, driverID, anchor)}
	c.week = &v
	return v, nil
}

// OpenEditor opens the ride form. With rideID it edits that ride; otherwise it starts a new
// ride on the selected date for driverID, or the first chauffeur when driverID is empty.
func (c *Controller) OpenEditor(ctx context.Context, rideID, driverID string) (EditorView, error) {
	if rideID == "" {
		if !c.me.IsPlanner() {
			return c.EditorView(), rides.ErrForbidden
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if driverID == "" {
			if chauffeurs := drivers.Chauffeurs(c.state.Drivers); len(chauffeurs) > 0 {
				driverID = chauffeurs[0].ID
			}
		}
		c.editor.OpenNew(c.state.Date, driverID)
		return c.editor.View(), nil
	}

	c.mu.Lock()
	r, ok := c.state.Ride(rideID)
	c.mu.Unlock()
	if !ok {
		found, err := c.svc.Get(ctx, rideID)
		if err != nil {
			return c.EditorView(), err
		}
		r = *found
	}
	if !c.me.IsPlanner() && r.ChauffeurID != c.me.ID {
		return c.EditorView(), rides.ErrForbidden
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor.OpenEdit(r)
	return c.editor.View(), nil
}

// SubmitEditor validates form and saves it. An invalid form never reaches the store.
func (c *Controller) SubmitEditor(ctx context.Context, form rides.Input) (EditorView, error) {
	c.mu.Lock()
	sub, err := c.editor.Begin(form)
	if err != nil {
		v := c.editor.View()
		c.mu.Unlock()
		return v, err
	}
	c.mu.Unlock()

	var saved *rides.Ride
	if sub.RideID != "" {
		saved, err = c.svc.Update(ctx, c.actor(), sub.RideID, sub.Input)
	} else {
		saved, err = c.svc.Create(ctx, c.actor(), sub.Input)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor.Finish(err)
	if err != nil {
		c.log.Warn("save ride failed", "ride_id", sub.RideID, "error", err)
		return c.editor.View(), err
	}
	c.state = Reduce(c.state, RideSaved{Ride: *saved})
	c.log.Info("ride saved", "ride_id", saved.ID, "date", saved.Date)
	return c.editor.View(), nil
}

// CloseEditor discards the form.
func (c *Controller) CloseEditor() EditorView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor.Close()
	return c.editor.View()
}

func (c *Controller) EditorView() EditorView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.View()
}

// DeleteRide removes a ride from the store and the list. An editor open on it is closed.
func (c *Controller) DeleteRide(ctx context.Context, id string) (View, error) {
	if err := c.svc.Delete(ctx, c.actor(), id); err != nil {
		return c.View(), err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, RideDeleted{ID: id})
	if c.editor.Editing(id) {
		c.editor.Close()
	}
	return c.viewLocked(), nil
}

// SetStatus applies status locally, marks the ride pending and persists it. On failure the
// pending change is dropped and the list is reloaded from the store.
func (c *Controller) SetStatus(ctx context.Context, id string, status rides.Status) (View, error) {
	if !status.Valid() {
		return c.View(), fmt.Errorf("%w: %q", rides.ErrInvalidStatus, status)
	}
	c.mu.Lock()
	if r, ok := c.state.Ride(id); ok && !c.me.IsPlanner() && r.ChauffeurID != c.me.ID {
		c.mu.Unlock()
		return c.View(), rides.ErrForbidden
	}
	c.state = Reduce(c.state, StatusRequested{ID: id, Status: status})
	ticket := c.state.Pending[id].Ticket
	c.mu.Unlock()

	saved, err := c.svc.SetStatus(ctx, c.actor(), id, status)
	if err != nil {
		c.mu.Lock()
		c.state = Reduce(c.state, StatusFailed{ID: id, Ticket: ticket, Err: err})
		c.mu.Unlock()
		c.log.Warn("status update failed, reloading", "ride_id", id, "status", string(status), "error", err)
		_ = c.loadRides(ctx)
		return c.View(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, StatusConfirmed{Ride: *saved, Ticket: ticket})
	return c.viewLocked(), nil
}

// DayRows is the current day list as export rows.
func (c *Controller) DayRows() []export.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return export.Rows(c.state.Rides, c.state.Drivers)
}

// CompletedRows loads every completed ride as export rows. Planners only.
func (c *Controller) CompletedRows(ctx context.Context) ([]export.Row, error) {
	list, err := c.svc.ListCompleted(ctx, c.actor())
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return export.Rows(list, c.state.Drivers), nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Reduce(c.state, nil)
}
