package trip

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/waypost-hq/waypost/internal/script"
)

// EvalContext is the dynamic variable bag visible to condition and
// template evaluation: trip values at the top level, role sub-objects,
// a history map (trigger name to last-fired timestamp), tripState, a
// schedule map, and transiently the event being processed.
type EvalContext map[string]any

// Clone returns a copy with a fresh top level. Nested values are
// shared; callers replace, never mutate, nested structures.
func (ec EvalContext) Clone() EvalContext {
	next := make(EvalContext, len(ec)+1)
	for k, v := range ec {
		next[k] = v
	}
	return next
}

// Merge returns a copy with the given entries set.
func (ec EvalContext) Merge(entries map[string]any) EvalContext {
	next := ec.Clone()
	for k, v := range entries {
		next[k] = v
	}
	return next
}

// History returns the trigger-firing history map, or nil.
func (ec EvalContext) History() map[string]any {
	h, _ := ec["history"].(map[string]any)
	return h
}

// HistoryEntry returns the last-fired timestamp string recorded for a
// trigger, or "" if it has never fired.
func (ec EvalContext) HistoryEntry(triggerName string) string {
	if ts, ok := ec.History()[triggerName].(string); ok {
		return ts
	}
	return ""
}

// WithHistory returns a copy whose history map has the given entries
// merged in.
func (ec EvalContext) WithHistory(entries map[string]any) EvalContext {
	old := ec.History()
	merged := make(map[string]any, len(old)+len(entries))
	for k, v := range old {
		merged[k] = v
	}
	for k, v := range entries {
		merged[k] = v
	}
	next := ec.Clone()
	next["history"] = merged
	return next
}

// CurrentSceneName returns tripState.currentSceneName, or "".
func (ec EvalContext) CurrentSceneName() string {
	state, _ := ec["tripState"].(map[string]any)
	name, _ := state["currentSceneName"].(string)
	return name
}

// Event is a typed occurrence, external or synthesized by an action,
// that triggers match against. Fields hold the type-specific payload.
type Event struct {
	Type   string
	Fields map[string]any
}

// Get returns a payload field, or nil.
func (e *Event) Get(key string) any {
	if e == nil {
		return nil
	}
	return e.Fields[key]
}

// GetString returns a payload field as a string, or "".
func (e *Event) GetString(key string) string {
	s, _ := e.Get(key).(string)
	return s
}

func (e *Event) toMap() map[string]any {
	m := map[string]any{"type": e.Type}
	for k, v := range e.Fields {
		m[k] = v
	}
	return m
}

// MarshalJSON emits the flat wire form ({"type": ..., ...payload}).
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.toMap())
}

// UnmarshalJSON decodes the flat wire form.
func (e *Event) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	typ, ok := m["type"].(string)
	if !ok || typ == "" {
		return fmt.Errorf("event missing type: %s", data)
	}
	e.Type = typ
	e.Fields = map[string]any{}
	for k, v := range m {
		if k != "type" {
			e.Fields[k] = v
		}
	}
	return nil
}

// ActionContext is the ambient evaluation environment: the static
// script, the dynamic EvalContext, and the logical timestamp of the
// current evaluation pass. Passed by value; functions that "update" it
// return a new one.
type ActionContext struct {
	ScriptContent   *script.Script
	EvalContext     EvalContext
	EvaluateAt      time.Time
	Timezone        *time.Location
	CurrentRoleName string
}

// WithEvalContext returns a copy with the given EvalContext.
func (ac ActionContext) WithEvalContext(ec EvalContext) ActionContext {
	ac.EvalContext = ec
	return ac
}

// WithEvent returns a copy whose EvalContext carries the event under
// the "event" key (nil if absent), so trigger and action guards can
// reference the event being processed.
func (ac ActionContext) WithEvent(ev *Event) ActionContext {
	var entry any
	if ev != nil {
		entry = ev.toMap()
	}
	ac.EvalContext = ac.EvalContext.Merge(map[string]any{"event": entry})
	return ac
}

// Location returns the context's timezone, defaulting to UTC.
func (ac ActionContext) Location() *time.Location {
	if ac.Timezone != nil {
		return ac.Timezone
	}
	return time.UTC
}
