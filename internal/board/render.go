package board

import (
	"slices"

	"ride-planner/internal/dayplan"
	"ride-planner/internal/drivers"
	"ride-planner/internal/rides"
)

// NoTime is shown when a ride has no time set.
const NoTime = "--:--"

// Card is a ride plus the fields derived for display.
type Card struct {
	rides.Ride
	TimeLabel    string `json:"time_label"`
	ArrivalLabel string `json:"arrival_label"`
	StatusLabel  string `json:"status_label"`
	StatusColor  string `json:"status_color"`
	Pending      bool   `json:"pending"`
	Editable     bool   `json:"editable"`
}

// Column is one chauffeur's rides on the planner board.
type Column struct {
	Driver drivers.Driver `json:"driver"`
	Rides  []Card         `json:"rides"`
}

// DayColumn is one day of a chauffeur's week.
type DayColumn struct {
	Date  dayplan.Date `json:"date"`
	Label string       `json:"label"`
	Rides []Card       `json:"rides"`
}

// TimeLabel renders a stored time as "HH:MM", or NoTime when empty.
func TimeLabel(s string) string {
	if s == "" {
		return NoTime
	}
	return rides.ShortClock(s)
}

// NewCard derives the display fields of r.
func NewCard(r rides.Ride) Card {
	return Card{
		Ride:         r,
		TimeLabel:    TimeLabel(r.DepartureTime),
		ArrivalLabel: TimeLabel(r.ArrivalTime),
		StatusLabel:  r.Status.Label(),
		StatusColor:  r.Status.Color(),
	}
}

// PlannerBoard builds one column per chauffeur in name order. Drivers with another role get no column.
func PlannerBoard(ds []drivers.Driver, rs []rides.Ride) []Column {
	return plannerBoard(ds, rs, nil)
}

// DriverDay lists the rides of a day chronologically. Only rides owned by me are editable.
func DriverDay(rs []rides.Ride, me string) []Card {
	return driverDay(rs, me, nil)
}

// DriverWeek builds the Monday..Sunday columns around anchor holding only me's rides.
func DriverWeek(rs []rides.Ride, me string, anchor dayplan.Date) []DayColumn {
	days := anchor.Week()
	out := make([]DayColumn, 0, len(days))
	for _, d := range days {
		col := DayColumn{Date: d, Label: d.ShortNL(), Rides: []Card{}}
		for _, r := range sorted(rs) {
			if r.ChauffeurID == me && r.Date == d.String() {
				c := NewCard(r)
				c.Editable = true
				col.Rides = append(col.Rides, c)
			}
		}
		out = append(out, col)
	}
	return out
}

func plannerBoard(ds []drivers.Driver, rs []rides.Ride, pending func(string) bool) []Column {
	chauffeurs := drivers.Chauffeurs(ds)
	list := sorted(rs)

	out := make([]Column, 0, len(chauffeurs))
	for _, d := range chauffeurs {
		col := Column{Driver: d, Rides: []Card{}}
		for _, r := range list {
			if r.ChauffeurID != d.ID {
				continue
			}
			c := NewCard(r)
			c.Editable = true
			c.Pending = pending != nil && pending(r.ID)
			col.Rides = append(col.Rides, c)
		}
		out = append(out, col)
	}
	return out
}

func driverDay(rs []rides.Ride, me string, pending func(string) bool) []Card {
	out := []Card{}
	for _, r := range sorted(rs) {
		c := NewCard(r)
		c.Editable = r.ChauffeurID == me
		c.Pending = pending != nil && pending(r.ID)
		out = append(out, c)
	}
	return out
}

func sorted(rs []rides.Ride) []rides.Ride {
	list := slices.Clone(rs)
	rides.SortByDeparture(list)
	return list
}
