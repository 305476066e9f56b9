package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

func evalCondition(t *testing.T, op string, params map[string]any, ec trip.EvalContext) bool {
	t.Helper()
	reg := DefaultRegistry()
	cond, ok := reg.Condition(op)
	require.True(t, ok, "condition %q not registered", op)
	result, err := cond.Eval(&script.IfClause{Op: op, Params: params}, ec, nil)
	require.NoError(t, err)
	return result
}

func TestValueIsTrue(t *testing.T) {
	ec := trip.EvalContext{"count": float64(3), "empty": "", "flag": true}
	tests := []struct {
		ref  string
		want bool
	}{
		{"count", true},
		{"flag", true},
		{"empty", false},
		{"missing", false},
	}
	for _, tt := range tests {
		got := evalCondition(t, "value_is_true", map[string]any{"ref": tt.ref}, ec)
		assert.Equal(t, tt.want, got, "ref %q", tt.ref)
	}
}

func TestValueEquals(t *testing.T) {
	ec := trip.EvalContext{
		"count":  float64(2),
		"label":  "Ready",
		"other":  "ready",
		"absent": nil,
	}
	tests := []struct {
		name string
		ref1 any
		ref2 any
		want bool
	}{
		{"number equals numeric literal", "count", 2, true},
		{"number equals numeric string", "count", "2", true},
		{"case-insensitive strings", "label", "other", true},
		{"quoted literal", "label", `"READY"`, true},
		{"both missing", "absent", "nope", true},
		{"one missing", "label", "nope", false},
		{"unequal", "count", 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalCondition(t, "value_equals",
				map[string]any{"ref1": tt.ref1, "ref2": tt.ref2}, ec)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueCompare(t *testing.T) {
	ec := trip.EvalContext{"score": float64(10)}
	tests := []struct {
		comparator string
		ref2       any
		want       bool
	}{
		{">", 5, true},
		{">", 15, false},
		{"<=", 10, true},
		{"==", 10, true},
		{"<", 10, false},
	}
	for _, tt := range tests {
		got := evalCondition(t, "value_compare", map[string]any{
			"ref1": "score", "comparator": tt.comparator, "ref2": tt.ref2,
		}, ec)
		assert.Equal(t, tt.want, got, "score %s %v", tt.comparator, tt.ref2)
	}
}

func TestValueCompareDefaultsToGreaterOrEqual(t *testing.T) {
	ec := trip.EvalContext{"score": float64(10)}
	assert.True(t, evalCondition(t, "value_compare",
		map[string]any{"ref1": "score", "ref2": 10}, ec))
}

func TestValueCompareInvalidComparator(t *testing.T) {
	reg := DefaultRegistry()
	cond, _ := reg.Condition("value_compare")
	_, err := cond.Eval(&script.IfClause{
		Op:     "value_compare",
		Params: map[string]any{"ref1": "a", "comparator": "~", "ref2": "b"},
	}, trip.EvalContext{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid comparator "~"`)
}

func TestSetValue(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("set_value")

	tests := []struct {
		name     string
		newValue any
		ec       trip.EvalContext
		want     any
	}{
		{"number literal", 2, trip.EvalContext{}, float64(2)},
		{"quoted string", `"hi"`, trip.EvalContext{}, "hi"},
		{"boolean", false, trip.EvalContext{}, false},
		{"other ref", "cabana.bananas", trip.EvalContext{
			"cabana": map[string]any{"bananas": float64(10)},
		}, float64(10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := action.GetOps(
				map[string]any{"value_ref": "count", "new_value_ref": tt.newValue},
				trip.ActionContext{EvalContext: tt.ec})
			require.NoError(t, err)
			assert.Equal(t, []ops.Op{ops.UpdateTripValues{
				Values: map[string]any{"count": tt.want},
			}}, got)
		})
	}
}

func TestIncrementValue(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("increment_value")

	tests := []struct {
		name   string
		params map[string]any
		ec     trip.EvalContext
		want   float64
	}{
		{"default delta", map[string]any{"value_ref": "count"},
			trip.EvalContext{"count": float64(4)}, 5},
		{"explicit delta", map[string]any{"value_ref": "count", "delta": 10},
			trip.EvalContext{"count": float64(4)}, 14},
		{"missing value counts as zero", map[string]any{"value_ref": "count"},
			trip.EvalContext{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := action.GetOps(tt.params, trip.ActionContext{EvalContext: tt.ec})
			require.NoError(t, err)
			assert.Equal(t, []ops.Op{ops.UpdateTripValues{
				Values: map[string]any{"count": tt.want},
			}}, got)
		})
	}
}
