package replay

import (
	"github.com/rpggio/tracereplay/internal/domain/event"
	"github.com/rpggio/tracereplay/internal/domain/pulse"
	"github.com/rpggio/tracereplay/internal/domain/views"
)

// State is the replay driver lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// NotificationKind identifies what changed in a Notification.
type NotificationKind string

const (
	KindLoaded       NotificationKind = "loaded"
	KindActivated    NotificationKind = "activated"
	KindPulse        NotificationKind = "pulse"
	KindRunCompleted NotificationKind = "run_completed"
	KindRunAborted   NotificationKind = "run_aborted"
	KindReset        NotificationKind = "reset"
)

// Notification is delivered to observers after every driver mutation.
type Notification struct {
	Kind       NotificationKind
	Pulse      int
	Batch      []event.Event
	Merged     event.MergeResult
	Projection pulse.Projection
	Candidates int
}

// View is everything the presentation layer reads after a mutation.
type View struct {
	State      State                 `json:"state"`
	Busy       bool                  `json:"busy"`
	PulseIndex int                   `json:"pulse_index"`
	Candidates int                   `json:"candidates"`
	Projection pulse.Projection      `json:"workflow"`
	Events     []event.Event         `json:"events"`
	Graph      views.ActorGraph      `json:"graph"`
	Governance []event.Event         `json:"governance"`
	Timeline   []views.TimelineGroup `json:"timeline"`
}
