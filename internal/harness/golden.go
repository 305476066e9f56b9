package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a scenario run: the trace
// plus the final context, serialized deterministically.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Trace        []StepTrace    `json:"trace"`
	FinalContext map[string]any `json:"final_context"`
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
		FinalContext: result.FinalContext,
	}
	// Go's encoder emits map keys sorted, so the snapshot is stable.
	traceJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}
