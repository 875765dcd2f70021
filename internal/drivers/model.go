package drivers

import "errors"

// Role separates planners from chauffeurs.
type Role string

const (
	RolePlanner   Role = "planner"
	RoleChauffeur Role = "chauffeur"
)

// ErrNotFound is returned when no driver matches.
var ErrNotFound = errors.New("driver not found")

// Driver is a person that either plans rides or drives them.
// Rows are administered outside this service.
type Driver struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
}

func (d Driver) IsPlanner() bool { return d.Role == RolePlanner }

// Name looks up a driver's display name by id.
func Name(list []Driver, id string) (string, bool) {
	for _, d := range list {
		if d.ID == id {
			return d.Name, true
		}
	}
	return "", false
}
