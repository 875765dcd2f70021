package board

import (
	"errors"

	"ride-planner/internal/dayplan"
	"ride-planner/internal/rides"
)

var (
	ErrEditorClosed = errors.New("editor is not open")
	ErrEditorBusy   = errors.New("editor is already saving")
)

// Phase is the editor lifecycle: closed -> open -> saving -> closed.
type Phase string

const (
	PhaseClosed Phase = "closed"
	PhaseOpen   Phase = "open"
	PhaseSaving Phase = "saving"
)

// Mode says whether the open editor creates or edits a ride.
type Mode string

const (
	ModeNew  Mode = "new"
	ModeEdit Mode = "edit"
)

// Editor is the ride form state machine. The zero value is closed.
type Editor struct {
	phase   Phase
	mode    Mode
	rideID  string
	form    rides.Input
	message string
}

// EditorView is the serialisable snapshot of an Editor.
type EditorView struct {
	Phase   Phase             `json:"phase"`
	Mode    Mode              `json:"mode,omitempty"`
	RideID  string            `json:"ride_id,omitempty"`
	Form    *rides.Input      `json:"form,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Submission is what a save sends to the store.
type Submission struct {
	RideID string
	Input  rides.Input
}

// OpenNew pre-seeds an empty form on date for driverID (which may be empty).
func (e *Editor) OpenNew(date dayplan.Date, driverID string) {
	*e = Editor{
		phase: PhaseOpen,
		mode:  ModeNew,
		form: rides.Input{
			Date:        date.String(),
			Status:      rides.StatusPlanned,
			ChauffeurID: driverID,
		},
	}
}

// OpenEdit pre-seeds the form from r with times cut to HH:MM.
func (e *Editor) OpenEdit(r rides.Ride) {
	*e = Editor{
		phase:  PhaseOpen,
		mode:   ModeEdit,
		rideID: r.ID,
		form:   rides.InputFrom(r),
	}
}

// Begin moves an open editor to saving. An invalid form keeps the editor open with a
// message and returns the *rides.ValidationError; nothing should be sent to the store then.
func (e *Editor) Begin(form rides.Input) (Submission, error) {
	switch e.phase {
	case PhaseOpen:
	case PhaseSaving:
		return Submission{}, ErrEditorBusy
	default:
		return Submission{}, ErrEditorClosed
	}
	form = form.Normalize()
	e.form = form
	if err := form.Validate(); err != nil {
		e.message = err.Error()
		return Submission{}, err
	}
	e.phase = PhaseSaving
	e.message = ""
	return Submission{RideID: e.rideID, Input: form}, nil
}

// Finish ends a save. On failure the editor reopens with the store's message.
func (e *Editor) Finish(err error) {
	if e.phase != PhaseSaving {
		return
	}
	if err != nil {
		e.phase = PhaseOpen
		e.message = err.Error()
		return
	}
	*e = Editor{phase: PhaseClosed}
}

// Close discards the form. A save in flight still finishes against the store.
func (e *Editor) Close() { *e = Editor{phase: PhaseClosed} }

func (e *Editor) Phase() Phase {
	if e.phase == "" {
		return PhaseClosed
	}
	return e.phase
}

// Editing reports whether the editor currently holds ride id.
func (e *Editor) Editing(id string) bool {
	return e.Phase() != PhaseClosed && e.rideID == id
}

func (e *Editor) View() EditorView {
	v := EditorView{Phase: e.Phase()}
	if v.Phase == PhaseClosed {
		return v
	}
	form := e.form
	v.Mode = e.mode
	v.RideID = e.rideID
	v.Form = &form
	v.Message = e.message
	if v.Message != "" {
		var verr *rides.ValidationError
		if errors.As(e.form.Validate(), &verr) {
			v.Fields = verr.Fields
		}
	}
	return v
}
