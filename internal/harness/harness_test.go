package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return scenario
}

func TestRunWelcomeScenario(t *testing.T) {
	scenario := loadTestScenario(t, "welcome.yaml")

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, "invoke", result.Trace[0].Kind)
	assert.Equal(t, "signal_cue", result.Trace[0].Name)
	assert.Len(t, result.Trace[0].Ops, 3)
	assert.Equal(t, true, result.FinalContext["welcomed"])
}

func TestRunScenarioFailingAssertion(t *testing.T) {
	scenario := loadTestScenario(t, "welcome.yaml")
	scenario.Assertions = append(scenario.Assertions, Assertion{
		Type:  AssertContextValue,
		Ref:   "welcomed",
		Value: false,
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "welcomed")
}

func TestRunScenarioWithWaitAndTick(t *testing.T) {
	scenario := &Scenario{
		Name:   "slow-cue",
		Script: filepath.Join("testdata", "scripts", "tour.yaml"),
		Start:  "2022-03-01T12:00:00Z",
		Steps: []Step{
			{Invoke: "signal_cue", Params: map[string]any{"cue_name": "slow"}},
			{Advance: "10m", Tick: true},
		},
		Assertions: []Assertion{
			{Type: AssertContextValue, Ref: "slow_done", Value: true},
			{Type: AssertScheduledCount, Count: 1},
			{Type: AssertHistoryContains, Trigger: "SLOW"},
		},
	}
	require.NoError(t, validateScenario(scenario))

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	// The deferred action only lands after the tick.
	require.Len(t, result.Trace, 2)
	assert.Equal(t, 1, result.Trace[0].Scheduled)
	assert.Equal(t, "tick", result.Trace[1].Kind)
	assert.Equal(t, true, result.FinalContext["slow_done"])
}

func TestGoldenWelcome(t *testing.T) {
	scenario := loadTestScenario(t, "welcome.yaml")
	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
