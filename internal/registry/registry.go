// Package registry holds the pluggable vocabulary the kernel
// dispatches over: action classes, condition classes, and per-event-
// type matchers, each keyed by name. The kernel knows nothing about
// any concrete entry; an unknown action or condition name at
// evaluation time is a fatal configuration error, while an unknown
// event type simply fires no triggers.
package registry

import (
	"fmt"
	"sort"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

// RecurseFunc evaluates a nested condition clause. Composite
// conditions (and/or/not) receive one so they can recurse without
// knowing how dispatch works.
type RecurseFunc func(ec trip.EvalContext, clause *script.IfClause) (bool, error)

// Action is one entry in the action vocabulary. GetOps computes the
// ordered side-effect descriptions for one invocation. Soft failures
// are reported as ops.Log entries in the returned list; the error
// return is reserved for configuration bugs that must abort the pass.
type Action interface {
	GetOps(params map[string]any, ac trip.ActionContext) ([]ops.Op, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(params map[string]any, ac trip.ActionContext) ([]ops.Op, error)

func (f ActionFunc) GetOps(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	return f(params, ac)
}

// Condition is one entry in the condition vocabulary.
type Condition interface {
	Eval(clause *script.IfClause, ec trip.EvalContext, recurse RecurseFunc) (bool, error)
}

// ConditionFunc adapts a function to the Condition interface.
type ConditionFunc func(clause *script.IfClause, ec trip.EvalContext, recurse RecurseFunc) (bool, error)

func (f ConditionFunc) Eval(clause *script.IfClause, ec trip.EvalContext, recurse RecurseFunc) (bool, error) {
	return f(clause, ec, recurse)
}

// EventMatcher decides whether a trigger's event pattern matches an
// incoming event of the same type.
type EventMatcher interface {
	MatchEvent(spec script.EventSpec, ev trip.Event, ac trip.ActionContext) bool
}

// EventMatcherFunc adapts a function to the EventMatcher interface.
type EventMatcherFunc func(spec script.EventSpec, ev trip.Event, ac trip.ActionContext) bool

func (f EventMatcherFunc) MatchEvent(spec script.EventSpec, ev trip.Event, ac trip.ActionContext) bool {
	return f(spec, ev, ac)
}

// Registry is a closed, name-keyed vocabulary assembled at startup.
// Registration happens before any evaluation; lookups are read-only
// afterwards, so no locking is needed.
type Registry struct {
	actions    map[string]Action
	conditions map[string]Condition
	events     map[string]EventMatcher
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		actions:    map[string]Action{},
		conditions: map[string]Condition{},
		events:     map[string]EventMatcher{},
	}
}

// RegisterAction adds an action class. Duplicate names are a wiring
// bug and panic immediately.
func (r *Registry) RegisterAction(name string, a Action) {
	if _, ok := r.actions[name]; ok {
		panic(fmt.Sprintf("registry: duplicate action %q", name))
	}
	r.actions[name] = a
}

// RegisterCondition adds a condition class.
func (r *Registry) RegisterCondition(name string, c Condition) {
	if _, ok := r.conditions[name]; ok {
		panic(fmt.Sprintf("registry: duplicate condition %q", name))
	}
	r.conditions[name] = c
}

// RegisterEvent adds an event matcher for one event type.
func (r *Registry) RegisterEvent(eventType string, m EventMatcher) {
	if _, ok := r.events[eventType]; ok {
		panic(fmt.Sprintf("registry: duplicate event type %q", eventType))
	}
	r.events[eventType] = m
}

// Action looks up an action class by name.
func (r *Registry) Action(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Condition looks up a condition class by op name.
func (r *Registry) Condition(op string) (Condition, bool) {
	c, ok := r.conditions[op]
	return c, ok
}

// Event looks up the matcher for an event type. A missing matcher is
// not an error: events with no matcher fire no triggers.
func (r *Registry) Event(eventType string) (EventMatcher, bool) {
	m, ok := r.events[eventType]
	return m, ok
}

// ActionNames returns the registered action names, sorted, for error
// messages.
func (r *Registry) ActionNames() []string {
	return sortedKeys(r.actions)
}

// ConditionOps returns the registered condition ops, sorted.
func (r *Registry) ConditionOps() []string {
	return sortedKeys(r.conditions)
}

// EventTypes returns the registered event types, sorted.
func (r *Registry) EventTypes() []string {
	return sortedKeys(r.events)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
