package kernel

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/waypost-hq/waypost/internal/eval"
	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

// Kernel evaluates actions and events against a registry vocabulary.
// It holds no per-trip state and is safe for concurrent use across
// trips; per-trip serialization is the caller's job.
type Kernel struct {
	reg  *registry.Registry
	eval *eval.Evaluator
}

// New returns a kernel over the given registry.
func New(reg *registry.Registry) *Kernel {
	return &Kernel{reg: reg, eval: eval.New(reg)}
}

// Evaluator returns the kernel's condition evaluator, for callers that
// evaluate guards outside a cascade (page visibility, previews).
func (k *Kernel) Evaluator() *eval.Evaluator {
	return k.eval
}

// ApplyAction evaluates one user- or scheduler-submitted action and
// the full cascade it causes.
func (k *Kernel) ApplyAction(action Action, ac trip.ActionContext) (Result, error) {
	return k.ResultForImmediateAction(action, ac, nil)
}

// ApplyEvent evaluates one external event and the full cascade it
// causes.
func (k *Kernel) ApplyEvent(ev trip.Event, ac trip.ActionContext) (Result, error) {
	return k.ResultForEvent(ev, ac, nil)
}

// OpsForAction computes the ops for a single action invocation, with
// no cascade. The action's originating event, if any, is placed in
// scope first.
func (k *Kernel) OpsForAction(action Action, ac trip.ActionContext) ([]ops.Op, error) {
	class, ok := k.reg.Action(action.Name)
	if !ok {
		return nil, fmt.Errorf("invalid action %q (valid actions: %s)",
			action.Name, strings.Join(k.reg.ActionNames(), ", "))
	}
	opsList, err := class.GetOps(action.Params, ac.WithEvent(action.Event))
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", action.Name, err)
	}
	return opsList, nil
}

// ResultForImmediateAction runs one action now: its own ops, then
// recursively the cascade of any events those ops carry. firedTriggers
// names the triggers already fired in this cascade; they are skipped
// on re-encounter.
func (k *Kernel) ResultForImmediateAction(action Action, ac trip.ActionContext, firedTriggers []string) (Result, error) {
	opsList, err := k.OpsForAction(action, ac)
	if err != nil {
		return Result{}, err
	}
	result := ResultForOps(opsList, ac)
	for _, ev := range ops.Events(result.Ops) {
		eventResult, err := k.ResultForEvent(ev, result.NextContext, firedTriggers)
		if err != nil {
			return Result{}, err
		}
		result = Concat(result, eventResult)
	}
	return result, nil
}

// ResultForEvent fires every matching trigger for one event, in
// declaration order. Triggers already fired earlier in the cascade are
// skipped, which bounds recursion even for mutually-triggering scenes.
// Each trigger sees the context as updated by the triggers before it,
// but matching itself is done against the pre-trigger context captured
// here.
func (k *Kernel) ResultForEvent(ev trip.Event, ac trip.ActionContext, firedTriggers []string) (Result, error) {
	result := InitialResult(ac)
	triggers, err := k.TriggersForEvent(ev, ac.WithEvent(&ev))
	if err != nil {
		return Result{}, err
	}
	for _, trigger := range triggers {
		if slices.Contains(firedTriggers, trigger.Name) {
			continue
		}
		triggerResult, err := k.ResultForTrigger(trigger, &ev, result.NextContext, ac, firedTriggers)
		if err != nil {
			return Result{}, err
		}
		result = Concat(result, triggerResult)
	}
	return result, nil
}

// ResultForTrigger fires one trigger. The history entry is recorded
// before any action runs, so a non-repeatable trigger is spent even if
// its own actions re-raise the matching event. Conditional branches
// are resolved against acWhenTriggered, the context frozen at match
// time; the actions themselves run against the running context ac.
//
// A wait among an action's ops defers that action and every later one
// in the trigger: relative waits extend the pending delay
// cumulatively, absolute waits ratchet it forward, and any action due
// after the pass's own timestamp is returned as a ScheduledAction
// instead of being run.
func (k *Kernel) ResultForTrigger(trigger *script.Trigger, ev *trip.Event, ac, acWhenTriggered trip.ActionContext, firedTriggers []string) (Result, error) {
	historyOp := ops.UpdateTripHistory{History: map[string]any{
		trigger.Name: trip.FormatTime(ac.EvaluateAt),
	}}
	result := ResultForOps([]ops.Op{historyOp}, ac)

	fired := append(slices.Clone(firedTriggers), trigger.Name)

	resolved, err := k.ResolveTriggerActions(trigger, acWhenTriggered.WithEvent(ev))
	if err != nil {
		return Result{}, fmt.Errorf("trigger %q: %w", trigger.Name, err)
	}

	waitingUntil := ac.EvaluateAt
	for i := range resolved {
		clause := &resolved[i]
		action := Action{Name: clause.Name, Params: clause.Params, Event: ev}

		actionResult, err := k.ResultForImmediateAction(action, result.NextContext, fired)
		if err != nil {
			return Result{}, fmt.Errorf("trigger %q: %w", trigger.Name, err)
		}

		if waits := ops.Waits(actionResult.Ops); len(waits) > 0 {
			for _, w := range waits {
				waitingUntil = trip.LaterOf(waitingUntil, waitDue(w, waitingUntil))
			}
			continue
		}

		if waitingUntil.After(ac.EvaluateAt) {
			result.Scheduled = append(result.Scheduled, ScheduledAction{
				Name:        action.Name,
				Params:      action.Params,
				ScheduleAt:  waitingUntil,
				TriggerName: trigger.Name,
				Event:       ev,
			})
			continue
		}

		result = Concat(result, actionResult)
	}
	return result, nil
}

// waitDue resolves one wait signal to an absolute due time, relative
// waits counting from the delay already accumulated.
func waitDue(w ops.Wait, waitingUntil time.Time) time.Time {
	if !w.Until.IsZero() {
		return w.Until
	}
	return waitingUntil.Add(time.Duration(w.Seconds * float64(time.Second)))
}
