package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

func sceneScript() *script.Script {
	return &script.Script{
		Scenes: []script.Scene{
			{Name: "SCENE-1"},
			{Name: "SCENE-2"},
			{Name: "SCENE-GLOBAL", Global: true},
		},
		Roles: []script.Role{
			{Name: "Guide", Interface: "tablet"},
			{Name: "Voice"},
		},
		Pages: []script.Page{
			{Name: "PAGE-B", Scene: "SCENE-2", Interface: "tablet"},
			{Name: "PAGE-A", Scene: "SCENE-2", Interface: "tablet"},
			{Name: "PAGE-OTHER", Scene: "SCENE-1", Interface: "tablet"},
		},
	}
}

func sceneContext(current string) trip.ActionContext {
	return trip.ActionContext{
		ScriptContent: sceneScript(),
		EvalContext: trip.EvalContext{
			"tripState": map[string]any{"currentSceneName": current},
		},
	}
}

func TestStartScene(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("start_scene")

	got, err := action.GetOps(map[string]any{"scene_name": "SCENE-2"}, sceneContext("SCENE-1"))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, ops.UpdateTripFields{Fields: map[string]any{
		"tripState": map[string]any{
			"currentSceneName": "SCENE-2",
			// First page by name, only for interfaced roles.
			"currentPageNamesByRole": map[string]any{"Guide": "PAGE-A"},
		},
	}}, got[0])
	assert.Equal(t, ops.EventOp{Event: trip.Event{
		Type:   "scene_started",
		Fields: map[string]any{"scene": "SCENE-2"},
	}}, got[1])
}

func TestStartSceneNoOps(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("start_scene")

	t.Run("already current", func(t *testing.T) {
		got, err := action.GetOps(map[string]any{"scene_name": "SCENE-1"}, sceneContext("SCENE-1"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("global scene", func(t *testing.T) {
		got, err := action.GetOps(map[string]any{"scene_name": "SCENE-GLOBAL"}, sceneContext("SCENE-1"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown scene logs error", func(t *testing.T) {
		got, err := action.GetOps(map[string]any{"scene_name": "SCENE-X"}, sceneContext("SCENE-1"))
		require.NoError(t, err)
		require.Len(t, got, 1)
		logOp, ok := got[0].(ops.Log)
		require.True(t, ok)
		assert.Equal(t, "error", logOp.Level)
	})
}

func TestSceneStartedMatcher(t *testing.T) {
	reg := DefaultRegistry()
	matcher, ok := reg.Event("scene_started")
	require.True(t, ok)

	ev := trip.Event{Type: "scene_started", Fields: map[string]any{"scene": "SCENE-2"}}
	assert.True(t, matcher.MatchEvent(
		script.EventSpec{Type: "scene_started", Params: map[string]any{"scene": "SCENE-2"}},
		ev, trip.ActionContext{}))
	assert.False(t, matcher.MatchEvent(
		script.EventSpec{Type: "scene_started", Params: map[string]any{"scene": "SCENE-1"}},
		ev, trip.ActionContext{}))
}

func TestSignalCue(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("signal_cue")

	got, err := action.GetOps(map[string]any{"cue_name": "CUE-BLACKOUT"}, trip.ActionContext{})
	require.NoError(t, err)
	assert.Equal(t, []ops.Op{ops.EventOp{Event: trip.Event{
		Type:   "cue_signaled",
		Fields: map[string]any{"cue": "CUE-BLACKOUT"},
	}}}, got)
}

func TestCueSignaledMatcher(t *testing.T) {
	reg := DefaultRegistry()
	matcher, _ := reg.Event("cue_signaled")

	ev := trip.Event{Type: "cue_signaled", Fields: map[string]any{"cue": "CUE-1"}}
	assert.True(t, matcher.MatchEvent(
		script.EventSpec{Type: "cue_signaled", Params: map[string]any{"cue": "CUE-1"}},
		ev, trip.ActionContext{}))
	assert.False(t, matcher.MatchEvent(
		script.EventSpec{Type: "cue_signaled", Params: map[string]any{"cue": "CUE-2"}},
		ev, trip.ActionContext{}))
}
