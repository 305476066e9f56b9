package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/waypost-hq/waypost/internal/kernel"
	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/trip"
)

// CreateTrip inserts a new trip record. The caller provides the
// initial evaluation context (tripState, role records, schedule).
func (s *Store) CreateTrip(ctx context.Context, t Trip) error {
	contextJSON, err := json.Marshal(t.EvalContext)
	if err != nil {
		return fmt.Errorf("create trip: marshal context: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trips
		(id, script_name, title, timezone, eval_context, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.ScriptName,
		t.Title,
		t.Timezone,
		string(contextJSON),
		trip.FormatTime(t.CreatedAt),
		trip.FormatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create trip: %w", err)
	}
	return nil
}

// ApplyResult applies one kernel result to a trip in a single
// transaction: every op is folded into the stored context and appended
// to the op log, messages are archived, and deferred actions are
// queued. Returns the trip's updated context.
//
// The fold uses the same per-op definition the kernel uses for its
// in-flight preview, so the stored context and the kernel's
// NextContext cannot drift.
func (s *Store) ApplyResult(ctx context.Context, tripID string, result kernel.Result, at time.Time) (trip.EvalContext, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("apply result: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var contextJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT eval_context FROM trips WHERE id = ?`, tripID).Scan(&contextJSON)
	if err != nil {
		return nil, fmt.Errorf("apply result: load trip %s: %w", tripID, err)
	}
	var ec trip.EvalContext
	if err := json.Unmarshal([]byte(contextJSON), &ec); err != nil {
		return nil, fmt.Errorf("apply result: decode context: %w", err)
	}

	for seq, op := range result.Ops {
		ec = ops.ApplyToContext(op, ec)

		if msg, ok := op.(ops.CreateMessage); ok {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO messages
				(id, trip_id, from_role, to_role, medium, content, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, NewID(), tripID, msg.FromRoleName, msg.ToRoleName,
				msg.Medium, msg.Content, trip.FormatTime(at))
			if err != nil {
				return nil, fmt.Errorf("apply result: insert message: %w", err)
			}
		}

		payload, err := ops.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("apply result: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO op_log (trip_id, seq, operation, payload, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, tripID, seq, op.Operation(), string(payload), trip.FormatTime(at))
		if err != nil {
			return nil, fmt.Errorf("apply result: insert op log: %w", err)
		}
	}

	for _, sa := range result.Scheduled {
		if err := insertScheduled(ctx, tx, tripID, sa, at); err != nil {
			return nil, fmt.Errorf("apply result: %w", err)
		}
	}

	newContextJSON, err := json.Marshal(ec)
	if err != nil {
		return nil, fmt.Errorf("apply result: marshal context: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE trips SET eval_context = ?, updated_at = ? WHERE id = ?`,
		string(newContextJSON), trip.FormatTime(at), tripID)
	if err != nil {
		return nil, fmt.Errorf("apply result: update trip: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("apply result: commit: %w", err)
	}
	return ec, nil
}

func insertScheduled(ctx context.Context, tx *sql.Tx, tripID string, sa kernel.ScheduledAction, at time.Time) error {
	paramsJSON, err := json.Marshal(sa.Params)
	if err != nil {
		return fmt.Errorf("marshal scheduled params: %w", err)
	}
	var eventJSON any
	if sa.Event != nil {
		data, err := json.Marshal(sa.Event)
		if err != nil {
			return fmt.Errorf("marshal scheduled event: %w", err)
		}
		eventJSON = string(data)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO scheduled_actions
		(id, trip_id, name, params, trigger_name, event, schedule_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, NewID(), tripID, sa.Name, string(paramsJSON), sa.TriggerName,
		eventJSON, trip.FormatTime(sa.ScheduleAt), trip.FormatTime(at))
	if err != nil {
		return fmt.Errorf("insert scheduled action: %w", err)
	}
	return nil
}

// MarkScheduledApplied stamps a scheduled action as processed so the
// tick loop does not pick it up again.
func (s *Store) MarkScheduledApplied(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_actions SET applied_at = ? WHERE id = ? AND applied_at IS NULL`,
		trip.FormatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark scheduled applied: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark scheduled applied: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scheduled action %s not pending", id)
	}
	return nil
}
