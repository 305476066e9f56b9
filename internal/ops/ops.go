package ops

import (
	"time"

	"github.com/waypost-hq/waypost/internal/trip"
)

// Op is the sealed result-operation union. Only the types in this
// package implement it.
type Op interface {
	// Operation returns the wire discriminator, e.g. "updateTripValues".
	Operation() string

	isOp()
}

// UpdateTripFields sets top-level trip fields (tripState, title, ...).
type UpdateTripFields struct {
	Fields map[string]any `json:"fields"`
}

// UpdateTripValues merges script-defined values into the trip.
type UpdateTripValues struct {
	Values map[string]any `json:"values"`
}

// UpdateTripHistory merges trigger-name to timestamp entries into the
// trip's firing history.
type UpdateTripHistory struct {
	History map[string]any `json:"history"`
}

// UpdatePlayerFields sets fields on one role's player record.
type UpdatePlayerFields struct {
	RoleName string         `json:"roleName"`
	Fields   map[string]any `json:"fields"`
}

// CreateMessage records a message sent from one role to another.
type CreateMessage struct {
	FromRoleName string `json:"fromRoleName"`
	ToRoleName   string `json:"toRoleName"`
	Medium       string `json:"medium"` // "text" or "image"
	Content      string `json:"content"`
}

// SendEmail asks the transport layer to deliver an email.
type SendEmail struct {
	FromRoleName string `json:"fromRoleName"`
	ToEmail      string `json:"toEmail"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
}

// EventOp carries a synthesized event. The kernel recurses into these
// within the same pass; they are also surfaced in the op list for
// audit.
type EventOp struct {
	Event trip.Event `json:"event"`
}

// Log records a soft failure or notable occurrence. Log ops are how
// action implementations report business-level problems (a missing
// template, a role with no email) without aborting the cascade.
type Log struct {
	Level   string `json:"level"` // "info", "warning", "error"
	Message string `json:"message"`
}

// Wait is an internal scheduling signal: it defers every later action
// in the same trigger. Exactly one of Seconds or Until is set. Wait ops
// are consumed by the kernel's scheduling loop and never persisted.
type Wait struct {
	Seconds float64   `json:"seconds,omitempty"`
	Until   time.Time `json:"until,omitzero"`
}

func (UpdateTripFields) Operation() string   { return "updateTripFields" }
func (UpdateTripValues) Operation() string   { return "updateTripValues" }
func (UpdateTripHistory) Operation() string  { return "updateTripHistory" }
func (UpdatePlayerFields) Operation() string { return "updatePlayerFields" }
func (CreateMessage) Operation() string      { return "createMessage" }
func (SendEmail) Operation() string          { return "sendEmail" }
func (EventOp) Operation() string            { return "event" }
func (Log) Operation() string                { return "log" }
func (Wait) Operation() string               { return "wait" }

func (UpdateTripFields) isOp()   {}
func (UpdateTripValues) isOp()   {}
func (UpdateTripHistory) isOp()  {}
func (UpdatePlayerFields) isOp() {}
func (CreateMessage) isOp()      {}
func (SendEmail) isOp()          {}
func (EventOp) isOp()            {}
func (Log) isOp()                {}
func (Wait) isOp()               {}

// ApplyToContext folds one op into an EvalContext, returning a new
// context. Only the context-visible subset has any effect; every other
// op kind returns the context unchanged. This is the single definition
// of "what applying op X means to the context", used both by the
// kernel's in-flight preview and by the store's durable apply.
func ApplyToContext(op Op, ec trip.EvalContext) trip.EvalContext {
	switch o := op.(type) {
	case UpdateTripFields:
		return ec.Merge(o.Fields)
	case UpdateTripValues:
		return ec.Merge(o.Values)
	case UpdateTripHistory:
		return ec.WithHistory(o.History)
	default:
		return ec
	}
}

// ApplyAllToContext folds a list of ops in order.
func ApplyAllToContext(list []Op, ec trip.EvalContext) trip.EvalContext {
	for _, op := range list {
		ec = ApplyToContext(op, ec)
	}
	return ec
}

// Events returns the synthesized events carried by the op list, in
// order.
func Events(list []Op) []trip.Event {
	var events []trip.Event
	for _, op := range list {
		if ev, ok := op.(EventOp); ok {
			events = append(events, ev.Event)
		}
	}
	return events
}

// Waits returns the wait signals in the op list, in order.
func Waits(list []Op) []Wait {
	var waits []Wait
	for _, op := range list {
		if w, ok := op.(Wait); ok {
			waits = append(waits, w)
		}
	}
	return waits
}
