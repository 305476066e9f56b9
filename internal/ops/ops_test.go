package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypost-hq/waypost/internal/trip"
)

func TestApplyToContext(t *testing.T) {
	ec := trip.EvalContext{"count": float64(1)}

	ec = ApplyToContext(UpdateTripValues{Values: map[string]any{"count": float64(2)}}, ec)
	assert.Equal(t, float64(2), ec["count"])

	ec = ApplyToContext(UpdateTripFields{Fields: map[string]any{
		"tripState": map[string]any{"currentSceneName": "NIGHT"},
	}}, ec)
	assert.Equal(t, "NIGHT", ec.CurrentSceneName())

	ec = ApplyToContext(UpdateTripHistory{History: map[string]any{
		"WELCOME": "2022-03-01T12:00:00Z",
	}}, ec)
	assert.Equal(t, "2022-03-01T12:00:00Z", ec.HistoryEntry("WELCOME"))

	// Ops without context effect leave the context untouched.
	before := ec.Clone()
	ec = ApplyToContext(Log{Level: "error", Message: "nope"}, ec)
	ec = ApplyToContext(CreateMessage{Medium: "text", Content: "hi"}, ec)
	assert.Equal(t, before, ec)
}

func TestApplyToContextDoesNotMutateInput(t *testing.T) {
	ec := trip.EvalContext{"count": float64(1)}
	_ = ApplyToContext(UpdateTripValues{Values: map[string]any{"count": float64(9)}}, ec)
	assert.Equal(t, float64(1), ec["count"])
}

func TestApplyAllToContextFoldsInOrder(t *testing.T) {
	ec := ApplyAllToContext([]Op{
		UpdateTripValues{Values: map[string]any{"x": float64(1)}},
		UpdateTripValues{Values: map[string]any{"x": float64(2)}},
	}, trip.EvalContext{})
	assert.Equal(t, float64(2), ec["x"])
}

func TestMarshalWireForm(t *testing.T) {
	data, err := Marshal(UpdateTripValues{Values: map[string]any{"b": true, "a": float64(1)}})
	require.NoError(t, err)
	// Keys come out sorted, with the discriminator folded in.
	assert.Equal(t,
		`{"operation":"updateTripValues","values":{"a":1,"b":true}}`,
		string(data))
}

func TestMarshalEventOp(t *testing.T) {
	data, err := Marshal(EventOp{Event: trip.Event{
		Type:   "cue_signaled",
		Fields: map[string]any{"cue": "start"},
	}})
	require.NoError(t, err)
	assert.Equal(t,
		`{"event":{"cue":"start","type":"cue_signaled"},"operation":"event"}`,
		string(data))
}

func TestUnmarshalRoundTrip(t *testing.T) {
	original := []Op{
		UpdateTripHistory{History: map[string]any{"T": "2022-03-01T12:00:00Z"}},
		CreateMessage{FromRoleName: "Guide", ToRoleName: "Player", Medium: "text", Content: "hi"},
		EventOp{Event: trip.Event{Type: "cue_signaled", Fields: map[string]any{"cue": "go"}}},
	}
	for _, op := range original {
		data, err := Marshal(op)
		require.NoError(t, err)
		decoded, err := Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, op, decoded, "op %s", op.Operation())
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	_, err := Unmarshal([]byte(`{"operation":"teleport"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op kind "teleport"`)
}

func TestEventsAndWaits(t *testing.T) {
	list := []Op{
		UpdateTripValues{Values: map[string]any{"a": true}},
		EventOp{Event: trip.Event{Type: "scene_started", Fields: map[string]any{"scene": "NIGHT"}}},
		Wait{Seconds: 30},
		Log{Level: "info", Message: "fine"},
	}
	events := Events(list)
	require.Len(t, events, 1)
	assert.Equal(t, "scene_started", events[0].Type)

	waits := Waits(list)
	require.Len(t, waits, 1)
	assert.Equal(t, float64(30), waits[0].Seconds)
}
