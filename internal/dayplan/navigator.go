package dayplan

import "time"

// Navigator holds the selected date. It is not safe for concurrent use on its own;
// the board controller serialises access.
type Navigator struct {
	selected Date
	now      func() time.Time
	loc      *time.Location
}

// NewNavigator starts on today's date in loc.
func NewNavigator(now func() time.Time, loc *time.Location) *Navigator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	n := &Navigator{now: now, loc: loc}
	n.selected = n.Today()
	return n
}

func (n *Navigator) Selected() Date { return n.selected }

// Today is the current date for the navigator's clock and location.
func (n *Navigator) Today() Date { return Today(n.now(), n.loc) }

// Shift moves the selection by delta days and returns the new selection.
func (n *Navigator) Shift(delta int) Date {
	n.selected = n.selected.Shift(delta)
	return n.selected
}

// GoToday resets the selection to today.
func (n *Navigator) GoToday() Date {
	n.selected = n.Today()
	return n.selected
}

// Select jumps to d.
func (n *Navigator) Select(d Date) Date {
	if !d.IsZero() {
		n.selected = d
	}
	return n.selected
}
