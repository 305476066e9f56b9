// Package runner orchestrates trips: it loads a trip's context from
// the store, evaluates an action or event through the kernel, and
// applies the result durably, all as one pass. It also drives the
// tick loop that delivers time events and re-submits scheduled
// actions once they come due.
//
// All mutations for one trip happen through a single runner call at a
// time; the store's single-writer connection serializes passes across
// processes.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/waypost-hq/waypost/internal/kernel"
	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/store"
	"github.com/waypost-hq/waypost/internal/trip"
)

// Runner evaluates and applies passes for trips running one script.
type Runner struct {
	scriptName string
	script     *script.Script
	kernel     *kernel.Kernel
	store      *store.Store
}

// New returns a runner over the given script, kernel, and store.
// scriptName labels trips this runner creates.
func New(scriptName string, s *script.Script, k *kernel.Kernel, st *store.Store) *Runner {
	return &Runner{scriptName: scriptName, script: s, kernel: k, store: st}
}

// CreateTrip creates a trip positioned at the script's first scene,
// with role records and the given schedule seeded into the context.
// The seed is applied as the trip's first logged op, so the op log
// refolds to the current context from an empty one.
func (r *Runner) CreateTrip(ctx context.Context, title, timezone string, schedule map[string]any, at time.Time) (store.Trip, error) {
	ec := trip.EvalContext{
		"tripState": map[string]any{
			"currentSceneName":       r.script.FirstSceneName(),
			"currentPageNamesByRole": map[string]any{},
		},
		"history":  map[string]any{},
		"schedule": map[string]any{},
	}
	for k, v := range schedule {
		ec["schedule"].(map[string]any)[k] = v
	}
	for _, role := range r.script.Roles {
		record := map[string]any{}
		if role.Email != "" {
			record["email"] = role.Email
		}
		ec[role.Name] = record
	}

	t := store.Trip{
		ID:          store.NewID(),
		ScriptName:  r.scriptName,
		Title:       title,
		Timezone:    timezone,
		EvalContext: trip.EvalContext{},
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if err := r.store.CreateTrip(ctx, t); err != nil {
		return store.Trip{}, err
	}
	seeded, err := r.store.ApplyResult(ctx, t.ID, kernel.Result{
		Ops: []ops.Op{ops.UpdateTripFields{Fields: ec}},
	}, at)
	if err != nil {
		return store.Trip{}, err
	}
	t.EvalContext = seeded
	slog.Info("trip created",
		"trip", t.ID,
		"title", t.Title,
		"scene", r.script.FirstSceneName(),
	)
	return t, nil
}

// Invoke evaluates one action against a trip and applies the result.
func (r *Runner) Invoke(ctx context.Context, tripID string, action kernel.Action, at time.Time) (kernel.Result, error) {
	ac, err := r.actionContext(ctx, tripID, at)
	if err != nil {
		return kernel.Result{}, err
	}
	result, err := r.kernel.ApplyAction(action, ac)
	if err != nil {
		return kernel.Result{}, fmt.Errorf("invoke %s on trip %s: %w", action.Name, tripID, err)
	}
	if err := r.apply(ctx, tripID, result, at); err != nil {
		return kernel.Result{}, err
	}
	slog.Info("action applied",
		"trip", tripID,
		"action", action.Name,
		"ops", len(result.Ops),
		"scheduled", len(result.Scheduled),
	)
	return result, nil
}

// Deliver evaluates one event against a trip and applies the result.
func (r *Runner) Deliver(ctx context.Context, tripID string, ev trip.Event, at time.Time) (kernel.Result, error) {
	ac, err := r.actionContext(ctx, tripID, at)
	if err != nil {
		return kernel.Result{}, err
	}
	result, err := r.kernel.ApplyEvent(ev, ac)
	if err != nil {
		return kernel.Result{}, fmt.Errorf("deliver %s to trip %s: %w", ev.Type, tripID, err)
	}
	if err := r.apply(ctx, tripID, result, at); err != nil {
		return kernel.Result{}, err
	}
	slog.Info("event applied",
		"trip", tripID,
		"event", ev.Type,
		"ops", len(result.Ops),
		"scheduled", len(result.Scheduled),
	)
	return result, nil
}

// Tick advances time for every trip: each trip receives a
// time_occurred event (trigger history keeps already-fired time
// triggers from re-firing), and every scheduled action due by now is
// claimed and run as an immediate action.
//
// Per-item failures are logged and skipped so one bad trip or action
// does not stall the rest of the tick.
func (r *Runner) Tick(ctx context.Context, now time.Time) error {
	trips, err := r.store.ListTrips(ctx)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	timeEvent := trip.Event{
		Type:   "time_occurred",
		Fields: map[string]any{"timestamp": trip.FormatTime(now)},
	}
	for _, t := range trips {
		if _, err := r.Deliver(ctx, t.ID, timeEvent, now); err != nil {
			slog.Error("tick: time event failed", "trip", t.ID, "error", err)
		}
	}

	due, err := r.store.DueScheduledActions(ctx, now)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	for _, sa := range due {
		// Claim first: a failing action is not retried, matching the
		// at-most-once contract for scheduled work.
		if err := r.store.MarkScheduledApplied(ctx, sa.ID, now); err != nil {
			slog.Error("tick: claim failed", "scheduled", sa.ID, "error", err)
			continue
		}
		if _, err := r.Invoke(ctx, sa.TripID, sa.Action(), now); err != nil {
			slog.Error("tick: scheduled action failed",
				"scheduled", sa.ID,
				"trip", sa.TripID,
				"action", sa.Name,
				"error", err,
			)
		}
	}
	return nil
}

func (r *Runner) actionContext(ctx context.Context, tripID string, at time.Time) (trip.ActionContext, error) {
	t, err := r.store.GetTrip(ctx, tripID)
	if err != nil {
		return trip.ActionContext{}, err
	}
	tz, err := time.LoadLocation(t.Timezone)
	if err != nil {
		slog.Warn("invalid trip timezone, using UTC", "trip", tripID, "timezone", t.Timezone)
		tz = time.UTC
	}
	return trip.ActionContext{
		ScriptContent: r.script,
		EvalContext:   t.EvalContext,
		EvaluateAt:    at,
		Timezone:      tz,
	}, nil
}

func (r *Runner) apply(ctx context.Context, tripID string, result kernel.Result, at time.Time) error {
	for _, op := range result.Ops {
		if logOp, ok := op.(ops.Log); ok {
			slog.Log(ctx, logLevel(logOp.Level), logOp.Message, "trip", tripID)
		}
	}
	if _, err := r.store.ApplyResult(ctx, tripID, result, at); err != nil {
		return err
	}
	return nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "error":
		return slog.LevelError
	case "warning":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
