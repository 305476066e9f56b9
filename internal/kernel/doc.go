// Package kernel implements the rule evaluation engine: given a script
// plus a trip context and one action or event, it computes the full
// synchronous cascade of ops, synthesized events, fired triggers, and
// nested actions, and returns a single aggregated Result.
//
// The kernel is pure: no I/O, no clocks, no mutation of its inputs.
// Every described side effect comes back as an ops.Op for the caller
// to persist, and every deferred action comes back as a
// ScheduledAction for an external scheduler to re-submit at or after
// its due time. The caller must ensure at most one evaluation pass is
// in flight per trip, and must apply a result's ops before starting
// the next pass.
//
// Evaluation order is deterministic: triggers fire in script
// declaration order, actions run in resolved declaration order, and a
// trigger fires at most once within one cascade.
package kernel
