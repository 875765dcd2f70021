package board_test

import (
	"testing"

	"ride-planner/internal/board"
	"ride-planner/internal/dayplan"
	"ride-planner/internal/drivers"
	"ride-planner/internal/rides"
)

var roster = []drivers.Driver{
	{ID: "d-piet", Name: "piet", Role: drivers.RoleChauffeur},
	{ID: "d-anna", Name: "Anna", Role: drivers.RolePlanner},
	{ID: "d-jan", Name: "Jan", Role: drivers.RoleChauffeur},
}

func TestTimeLabel(t *testing.T) {
	for in, want := range map[string]string{"": board.NoTime, "07:05:00": "07:05", "23:59": "23:59"} {
		if got := board.TimeLabel(in); got != want {
			t.Errorf("TimeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlannerBoard(t *testing.T) {
	list := []rides.Ride{
		ride("j2", "2024-05-01", "12:00:00", rides.StatusPlanned, "d-jan"),
		ride("p1", "2024-05-01", "08:00:00", rides.Status("vertraagd"), "d-piet"),
		ride("j1", "2024-05-01", "", rides.StatusCompleted, "d-jan"),
		ride("x", "2024-05-01", "09:00:00", rides.StatusPlanned, "d-anna"),
	}
	cols := board.PlannerBoard(roster, list)
	if len(cols) != 2 || cols[0].Driver.ID != "d-jan" || cols[1].Driver.ID != "d-piet" {
		t.Fatalf("columns = %+v", cols)
	}
	jan := cols[0].Rides
	if len(jan) != 2 || jan[0].ID != "j1" || jan[1].ID != "j2" {
		t.Fatalf("jan column = %+v", jan)
	}
	if jan[0].TimeLabel != board.NoTime || jan[0].StatusLabel != "Afgerond" || jan[0].StatusColor != "green" {
		t.Errorf("derived fields = %+v", jan[0])
	}
	p := cols[1].Rides[0]
	if p.StatusLabel != "vertraagd" || p.StatusColor != "gray" {
		t.Errorf("unknown status rendered as %q/%q", p.StatusLabel, p.StatusColor)
	}
}

func TestDriverDay_OnlyOwnRidesEditable(t *testing.T) {
	list := []rides.Ride{
		ride("mine", "2024-05-01", "10:00:00", rides.StatusPlanned, "d-jan"),
		ride("theirs", "2024-05-01", "09:00:00", rides.StatusPlanned, "d-piet"),
	}
	cards := board.DriverDay(list, "d-jan")
	if len(cards) != 2 || cards[0].ID != "theirs" {
		t.Fatalf("cards = %+v", cards)
	}
	for _, c := range cards {
		if c.Editable != (c.ChauffeurID == "d-jan") {
			t.Errorf("ride %s editable = %v", c.ID, c.Editable)
		}
	}
}

func TestDriverWeek(t *testing.T) {
	list := []rides.Ride{
		ride("mon", "2024-04-29", "10:00:00", rides.StatusPlanned, "d-jan"),
		ride("wed-late", "2024-05-01", "18:00:00", rides.StatusPlanned, "d-jan"),
		ride("wed-early", "2024-05-01", "06:00:00", rides.StatusPlanned, "d-jan"),
		ride("wed-other", "2024-05-01", "07:00:00", rides.StatusPlanned, "d-piet"),
		ride("next-mon", "2024-05-06", "07:00:00", rides.StatusPlanned, "d-jan"),
	}
	days := board.DriverWeek(list, "d-jan", dayplan.NewDate(2024, 5, 1))
	if len(days) != 7 {
		t.Fatalf("days = %d", len(days))
	}
	if days[0].Date.String() != "2024-04-29" || days[6].Date.String() != "2024-05-05" {
		t.Errorf("week = %s..%s", days[0].Date, days[6].Date)
	}
	if days[0].Label != "ma 29-4" {
		t.Errorf("label = %q", days[0].Label)
	}
	wed := days[2].Rides
	if len(wed) != 2 || wed[0].ID != "wed-early" || wed[1].ID != "wed-late" {
		t.Errorf("wednesday = %+v", wed)
	}
	total := 0
	for _, d := range days {
		total += len(d.Rides)
	}
	if total != 3 {
		t.Errorf("rides in week = %d, want 3", total)
	}
}
