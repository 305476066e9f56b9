package kernel

import (
	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/trip"
)

// Result aggregates one evaluation pass: every op produced so far in
// order, every action deferred to a later time, and the context as it
// stands with those ops folded in. NextContext is a preview for guard
// evaluation within the pass; the durable state only changes when the
// caller applies Ops.
type Result struct {
	NextContext trip.ActionContext
	Ops         []ops.Op
	Scheduled   []ScheduledAction
}

// InitialResult is the empty result for a pass starting from ac.
func InitialResult(ac trip.ActionContext) Result {
	return Result{NextContext: ac}
}

// ResultForOps wraps a batch of ops, folding their context-visible
// effects into a next context.
func ResultForOps(list []ops.Op, ac trip.ActionContext) Result {
	return Result{
		NextContext: ac.WithEvalContext(ops.ApplyAllToContext(list, ac.EvalContext)),
		Ops:         list,
	}
}

// Concat appends a later result onto an earlier one. Op and schedule
// order is preserved; the later result's context wins, since it was
// computed from the earlier one.
func Concat(earlier, later Result) Result {
	return Result{
		NextContext: later.NextContext,
		Ops:         append(earlier.Ops, later.Ops...),
		Scheduled:   append(earlier.Scheduled, later.Scheduled...),
	}
}
