package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

func noopAction(map[string]any, trip.ActionContext) ([]ops.Op, error) {
	return nil, nil
}

func TestRegisterAndLookup(t *testing.T) {
	reg := New()
	reg.RegisterAction("ping", ActionFunc(noopAction))
	reg.RegisterCondition("always", ConditionFunc(
		func(*script.IfClause, trip.EvalContext, RecurseFunc) (bool, error) {
			return true, nil
		}))
	reg.RegisterEvent("pinged", EventMatcherFunc(
		func(script.EventSpec, trip.Event, trip.ActionContext) bool {
			return true
		}))

	_, ok := reg.Action("ping")
	assert.True(t, ok)
	_, ok = reg.Action("pong")
	assert.False(t, ok)

	cond, ok := reg.Condition("always")
	require.True(t, ok)
	got, err := cond.Eval(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, got)

	_, ok = reg.Event("pinged")
	assert.True(t, ok)
	_, ok = reg.Event("unknown")
	assert.False(t, ok)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := New()
	reg.RegisterAction("ping", ActionFunc(noopAction))
	assert.PanicsWithValue(t, `registry: duplicate action "ping"`, func() {
		reg.RegisterAction("ping", ActionFunc(noopAction))
	})
}

func TestNamesAreSorted(t *testing.T) {
	reg := New()
	reg.RegisterAction("zeta", ActionFunc(noopAction))
	reg.RegisterAction("alpha", ActionFunc(noopAction))
	reg.RegisterAction("mid", ActionFunc(noopAction))
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.ActionNames())
}
