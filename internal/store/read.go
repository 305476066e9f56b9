package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/waypost-hq/waypost/internal/trip"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// GetTrip loads one trip by ID.
func (s *Store) GetTrip(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, script_name, title, timezone, eval_context, created_at, updated_at
		FROM trips WHERE id = ?
	`, id)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Trip{}, fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Trip{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	return t, nil
}

// ListTrips returns every trip, oldest first.
func (s *Store) ListTrips(ctx context.Context) ([]Trip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, script_name, title, timezone, eval_context, created_at, updated_at
		FROM trips ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("list trips: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(row scanner) (Trip, error) {
	var t Trip
	var contextJSON, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.ScriptName, &t.Title, &t.Timezone,
		&contextJSON, &createdAt, &updatedAt)
	if err != nil {
		return Trip{}, err
	}
	if err := json.Unmarshal([]byte(contextJSON), &t.EvalContext); err != nil {
		return Trip{}, fmt.Errorf("decode context: %w", err)
	}
	if t.CreatedAt, err = trip.ParseTime(createdAt); err != nil {
		return Trip{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = trip.ParseTime(updatedAt); err != nil {
		return Trip{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}

// ListMessages returns a trip's messages, oldest first.
func (s *Store) ListMessages(ctx context.Context, tripID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, from_role, to_role, medium, content, created_at
		FROM messages WHERE trip_id = ? ORDER BY created_at ASC, id ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.TripID, &m.FromRole, &m.ToRole,
			&m.Medium, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		if m.CreatedAt, err = trip.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("list messages: parse created_at: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DueScheduledActions returns every pending scheduled action due at or
// before now, across all trips, oldest due first.
func (s *Store) DueScheduledActions(ctx context.Context, now time.Time) ([]Scheduled, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, name, params, trigger_name, event, schedule_at, applied_at
		FROM scheduled_actions
		WHERE applied_at IS NULL AND schedule_at <= ?
		ORDER BY schedule_at ASC, id ASC
	`, trip.FormatTime(now))
	if err != nil {
		return nil, fmt.Errorf("due scheduled actions: %w", err)
	}
	defer rows.Close()
	return collectScheduled(rows)
}

// ListScheduledActions returns every scheduled action for a trip,
// pending and applied, oldest due first.
func (s *Store) ListScheduledActions(ctx context.Context, tripID string) ([]Scheduled, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, name, params, trigger_name, event, schedule_at, applied_at
		FROM scheduled_actions WHERE trip_id = ?
		ORDER BY schedule_at ASC, id ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled actions: %w", err)
	}
	defer rows.Close()
	return collectScheduled(rows)
}

func collectScheduled(rows *sql.Rows) ([]Scheduled, error) {
	var scheduled []Scheduled
	for rows.Next() {
		var sa Scheduled
		var paramsJSON, scheduleAt string
		var eventJSON, appliedAt sql.NullString
		if err := rows.Scan(&sa.ID, &sa.TripID, &sa.Name, &paramsJSON,
			&sa.TriggerName, &eventJSON, &scheduleAt, &appliedAt); err != nil {
			return nil, fmt.Errorf("scan scheduled action: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &sa.Params); err != nil {
			return nil, fmt.Errorf("decode scheduled params: %w", err)
		}
		if eventJSON.Valid {
			var ev trip.Event
			if err := json.Unmarshal([]byte(eventJSON.String), &ev); err != nil {
				return nil, fmt.Errorf("decode scheduled event: %w", err)
			}
			sa.Event = &ev
		}
		at, err := trip.ParseTime(scheduleAt)
		if err != nil {
			return nil, fmt.Errorf("parse schedule_at: %w", err)
		}
		sa.ScheduleAt = at
		if appliedAt.Valid {
			t, err := trip.ParseTime(appliedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse applied_at: %w", err)
			}
			sa.AppliedAt = &t
		}
		scheduled = append(scheduled, sa)
	}
	return scheduled, rows.Err()
}

// ListOps returns a trip's op log in applied order.
func (s *Store) ListOps(ctx context.Context, tripID string) ([]LoggedOp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, seq, operation, payload, created_at
		FROM op_log WHERE trip_id = ? ORDER BY id ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list ops: %w", err)
	}
	defer rows.Close()

	var logged []LoggedOp
	for rows.Next() {
		var entry LoggedOp
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.TripID, &entry.Seq,
			&entry.Operation, &entry.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("list ops: %w", err)
		}
		if entry.CreatedAt, err = trip.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("list ops: parse created_at: %w", err)
		}
		logged = append(logged, entry)
	}
	return logged, rows.Err()
}
