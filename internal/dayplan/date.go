// Package dayplan holds the calendar-date type that drives every board view.
package dayplan

import (
	"encoding/json"
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Date is a calendar day without time of day. The zero value is not a valid date.
type Date struct {
	t time.Time // always midnight UTC
}

// NewDate builds a Date; out-of-range values are normalised like time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime takes the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) Date {
	return FromTime(now.In(loc))
}

// Parse reads a "YYYY-MM-DD" string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// String formats the date as "YYYY-MM-DD", the form used in queries.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

// Shift moves the date by n calendar days.
func (d Date) Shift(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// WeekStart returns the Monday of d's week.
func (d Date) WeekStart() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.Shift(-offset)
}

// Week returns the seven days Monday..Sunday containing d.
func (d Date) Week() [7]Date {
	var out [7]Date
	start := d.WeekStart()
	for i := range out {
		out[i] = start.Shift(i)
	}
	return out
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, err := Parse(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}
