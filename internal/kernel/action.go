package kernel

import (
	"time"

	"github.com/waypost-hq/waypost/internal/trip"
)

// Action is one concrete action invocation: a name into the action
// registry, its parameters, and optionally the event that caused it.
// The event is carried so that deferred actions still evaluate with
// the original occurrence in scope.
type Action struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
	Event  *trip.Event    `json:"event,omitempty"`
}

// ScheduledAction is an action deferred past the end of the current
// pass by a preceding wait. The kernel never executes these; the
// caller persists them and re-submits each one as an immediate action
// once ScheduleAt has passed.
type ScheduledAction struct {
	Name        string         `json:"name"`
	Params      map[string]any `json:"params,omitempty"`
	ScheduleAt  time.Time      `json:"scheduleAt"`
	TriggerName string         `json:"triggerName,omitempty"`
	Event       *trip.Event    `json:"event,omitempty"`
}

// Action returns the immediate action to run when the schedule comes
// due.
func (s ScheduledAction) Action() Action {
	return Action{Name: s.Name, Params: s.Params, Event: s.Event}
}
