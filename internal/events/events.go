package events

// Kind says what happened to a ride.
type Kind string

const (
	KindSaved         Kind = "saved"
	KindStatusChanged Kind = "status_changed"
	KindDeleted       Kind = "deleted"
)

// RideChangedEvent is published to ride.saved, ride.status_changed and ride.deleted.
// PreviousDate is set when a save moved the ride to another day.
type RideChangedEvent struct {
	Kind         Kind   `json:"kind"`
	RideID       string `json:"ride_id"`
	Date         string `json:"date"`
	PreviousDate string `json:"previous_date,omitempty"`
	ChauffeurID  string `json:"chauffeur_id,omitempty"`
	Status       string `json:"status,omitempty"`
	ActorID      string `json:"actor_id"`
	OccurredAt   string `json:"occurred_at"`
}

// Dates returns the days whose views are affected by the event.
func (e RideChangedEvent) Dates() []string {
	if e.PreviousDate != "" && e.PreviousDate != e.Date {
		return []string{e.Date, e.PreviousDate}
	}
	return []string{e.Date}
}
