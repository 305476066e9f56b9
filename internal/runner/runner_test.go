package runner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypost-hq/waypost/internal/kernel"
	"github.com/waypost-hq/waypost/internal/modules"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/store"
	"github.com/waypost-hq/waypost/internal/trip"
)

var runTime = time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)

const testScript = `
scenes:
  - name: MORNING
    title: Morning
roles:
  - name: Guide
    email: guide@example.com
  - name: Player
triggers:
  - name: WELCOME
    event:
      type: cue_signaled
      cue: start
    actions:
      - name: set_value
        value_ref: welcomed
        new_value_ref: true
  - name: REMINDER
    event:
      type: time_occurred
      time: checkin
    actions:
      - name: set_value
        value_ref: reminded
        new_value_ref: true
  - name: SLOW
    event:
      type: cue_signaled
      cue: slow
    actions:
      - name: wait
        duration: 10s
      - name: set_value
        value_ref: slow_done
        new_value_ref: true
`

func newTestRunner(t *testing.T) (*Runner, *store.Store) {
	t.Helper()
	s, err := script.Parse([]byte(testScript))
	require.NoError(t, err)
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New("tour", s, kernel.New(modules.DefaultRegistry()), st), st
}

func createRunnerTrip(t *testing.T, r *Runner, schedule map[string]any) store.Trip {
	t.Helper()
	tr, err := r.CreateTrip(context.Background(), "Test Trip", "UTC", schedule, runTime)
	require.NoError(t, err)
	return tr
}

func TestCreateTripSeedsContext(t *testing.T) {
	r, _ := newTestRunner(t)
	tr := createRunnerTrip(t, r, map[string]any{
		"checkin": trip.FormatTime(runTime.Add(time.Hour)),
	})

	assert.Equal(t, "tour", tr.ScriptName)
	assert.Equal(t, "MORNING", tr.EvalContext.CurrentSceneName())

	schedule := tr.EvalContext["schedule"].(map[string]any)
	assert.Equal(t, trip.FormatTime(runTime.Add(time.Hour)), schedule["checkin"])

	guide := tr.EvalContext["Guide"].(map[string]any)
	assert.Equal(t, "guide@example.com", guide["email"])
	assert.Equal(t, map[string]any{}, tr.EvalContext["Player"])
}

func TestInvokePersistsCascade(t *testing.T) {
	r, st := newTestRunner(t)
	tr := createRunnerTrip(t, r, nil)
	ctx := context.Background()

	result, err := r.Invoke(ctx, tr.ID, kernel.Action{
		Name:   "signal_cue",
		Params: map[string]any{"cue_name": "start"},
	}, runTime)
	require.NoError(t, err)
	assert.Equal(t, true, result.NextContext.EvalContext["welcomed"])

	got, err := st.GetTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, true, got.EvalContext["welcomed"])
	assert.Equal(t, trip.FormatTime(runTime), got.EvalContext.HistoryEntry("WELCOME"))

	logged, err := st.ListOps(ctx, tr.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, logged)
}

func TestInvokeUnknownTrip(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.Invoke(context.Background(), "nope", kernel.Action{Name: "signal_cue"}, runTime)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeliverEvent(t *testing.T) {
	r, st := newTestRunner(t)
	tr := createRunnerTrip(t, r, nil)
	ctx := context.Background()

	_, err := r.Deliver(ctx, tr.ID, trip.Event{
		Type:   "cue_signaled",
		Fields: map[string]any{"cue": "start"},
	}, runTime)
	require.NoError(t, err)

	got, err := st.GetTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, true, got.EvalContext["welcomed"])
}

func TestTickFiresTimeTriggerOnce(t *testing.T) {
	r, st := newTestRunner(t)
	tr := createRunnerTrip(t, r, map[string]any{
		"checkin": trip.FormatTime(runTime.Add(time.Hour)),
	})
	ctx := context.Background()

	// Before the scheduled time nothing fires.
	require.NoError(t, r.Tick(ctx, runTime))
	got, err := st.GetTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EvalContext["reminded"])

	// At the scheduled time the trigger fires.
	require.NoError(t, r.Tick(ctx, runTime.Add(time.Hour)))
	got, err = st.GetTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, true, got.EvalContext["reminded"])

	// Later ticks do not re-fire it.
	require.NoError(t, r.Tick(ctx, runTime.Add(2*time.Hour)))
	got, err = st.GetTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, true, got.EvalContext["reminded"])
	assert.Equal(t, trip.FormatTime(runTime.Add(time.Hour)),
		got.EvalContext.HistoryEntry("REMINDER"))
}

func TestTickRunsDueScheduledActions(t *testing.T) {
	r, st := newTestRunner(t)
	tr := createRunnerTrip(t, r, nil)
	ctx := context.Background()

	// The wait defers the set_value ten seconds past the invoke.
	result, err := r.Invoke(ctx, tr.ID, kernel.Action{
		Name:   "signal_cue",
		Params: map[string]any{"cue_name": "slow"},
	}, runTime)
	require.NoError(t, err)
	require.Len(t, result.Scheduled, 1)
	assert.Equal(t, runTime.Add(10*time.Second), result.Scheduled[0].ScheduleAt)

	got, err := st.GetTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EvalContext["slow_done"])

	// A tick before the due time leaves it pending.
	require.NoError(t, r.Tick(ctx, runTime.Add(5*time.Second)))
	got, err = st.GetTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EvalContext["slow_done"])

	// A tick at the due time claims and runs it.
	require.NoError(t, r.Tick(ctx, runTime.Add(10*time.Second)))
	got, err = st.GetTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, true, got.EvalContext["slow_done"])

	due, err := st.DueScheduledActions(ctx, runTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestInvalidTimezoneFallsBackToUTC(t *testing.T) {
	r, st := newTestRunner(t)
	tr, err := r.CreateTrip(context.Background(), "Bad TZ", "Not/AZone", nil, runTime)
	require.NoError(t, err)

	_, err = r.Deliver(context.Background(), tr.ID, trip.Event{
		Type:   "cue_signaled",
		Fields: map[string]any{"cue": "start"},
	}, runTime)
	require.NoError(t, err)

	got, err := st.GetTrip(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, true, got.EvalContext["welcomed"])
}
