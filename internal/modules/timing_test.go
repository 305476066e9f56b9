package modules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

var scheduleBase = time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)

func scheduleContext(entries map[string]any) trip.ActionContext {
	return trip.ActionContext{EvalContext: trip.EvalContext{"schedule": entries}}
}

func TestWait(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("wait")

	got, err := action.GetOps(map[string]any{"duration": "10s"}, trip.ActionContext{})
	require.NoError(t, err)
	assert.Equal(t, []ops.Op{ops.Wait{Seconds: 10}}, got)

	// Malformed durations degrade to no delay.
	got, err = action.GetOps(map[string]any{"duration": "soon"}, trip.ActionContext{})
	require.NoError(t, err)
	assert.Equal(t, []ops.Op{ops.Wait{Seconds: 0}}, got)
}

func TestWaitForTime(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("wait_for_time")
	ac := scheduleContext(map[string]any{"CURTAIN": trip.FormatTime(scheduleBase)})

	got, err := action.GetOps(map[string]any{"until": "CURTAIN"}, ac)
	require.NoError(t, err)
	assert.Equal(t, []ops.Op{ops.Wait{Until: scheduleBase}}, got)
}

func TestWaitForTimeMissingEntry(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("wait_for_time")

	got, err := action.GetOps(map[string]any{"until": "CURTAIN"},
		scheduleContext(map[string]any{}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	logOp, ok := got[0].(ops.Log)
	require.True(t, ok)
	assert.Equal(t, "error", logOp.Level)
}

func TestWaitBeforeTime(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("wait_before_time")
	ac := scheduleContext(map[string]any{"CURTAIN": trip.FormatTime(scheduleBase)})

	got, err := action.GetOps(map[string]any{"until": "CURTAIN", "before": "10s"}, ac)
	require.NoError(t, err)
	assert.Equal(t, []ops.Op{ops.Wait{Until: scheduleBase.Add(-10 * time.Second)}}, got)
}

func TestTimeOccurredMatcher(t *testing.T) {
	matchAt := func(t *testing.T, params map[string]any, at time.Time, entries map[string]any) bool {
		t.Helper()
		reg := DefaultRegistry()
		matcher, ok := reg.Event("time_occurred")
		require.True(t, ok)
		ev := trip.Event{Type: "time_occurred", Fields: map[string]any{
			"timestamp": trip.FormatTime(at),
		}}
		return matcher.MatchEvent(
			script.EventSpec{Type: "time_occurred", Params: params},
			ev, scheduleContext(entries))
	}

	entries := map[string]any{"HAPPENS": trip.FormatTime(scheduleBase)}
	spec := map[string]any{"time": "HAPPENS"}

	t.Run("fires at the scheduled time", func(t *testing.T) {
		assert.True(t, matchAt(t, spec, scheduleBase, entries))
	})
	t.Run("fires on time already past", func(t *testing.T) {
		assert.True(t, matchAt(t, spec, scheduleBase.Add(time.Hour), entries))
	})
	t.Run("does not fire before the scheduled time", func(t *testing.T) {
		assert.False(t, matchAt(t, spec, scheduleBase.Add(-time.Minute), entries))
	})
	t.Run("negative offset fires early", func(t *testing.T) {
		early := map[string]any{"time": "HAPPENS", "offset": "-90m"}
		assert.True(t, matchAt(t, early, scheduleBase.Add(-time.Hour), entries))
		late := map[string]any{"time": "HAPPENS", "offset": "-30m"}
		assert.False(t, matchAt(t, late, scheduleBase.Add(-time.Hour), entries))
	})
	t.Run("positive offset fires late", func(t *testing.T) {
		offset := map[string]any{"time": "HAPPENS", "offset": "30m"}
		assert.False(t, matchAt(t, offset, scheduleBase, entries))
		assert.True(t, matchAt(t, offset, scheduleBase.Add(time.Hour), entries))
	})
	t.Run("missing schedule entry never fires", func(t *testing.T) {
		assert.False(t, matchAt(t, spec, scheduleBase, map[string]any{}))
	})
}
