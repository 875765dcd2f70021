package dayplan

import "fmt"

var (
	weekdaysNL = [...]string{"zondag", "maandag", "dinsdag", "woensdag", "donderdag", "vrijdag", "zaterdag"}
	monthsNL   = [...]string{"januari", "februari", "maart", "april", "mei", "juni", "juli",
		"augustus", "september", "oktober", "november", "december"}
)

// LongNL renders e.g. "woensdag 1 mei 2024".
func (d Date) LongNL() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s %d %s %d", weekdaysNL[d.Weekday()], d.t.Day(), monthsNL[d.t.Month()-1], d.t.Year())
}

// ShortNL renders e.g. "wo 1-5".
func (d Date) ShortNL() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s %d-%d", weekdaysNL[d.Weekday()][:2], d.t.Day(), int(d.t.Month()))
}
