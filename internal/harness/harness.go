package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/waypost-hq/waypost/internal/kernel"
	"github.com/waypost-hq/waypost/internal/modules"
	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/runner"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/store"
	"github.com/waypost-hq/waypost/internal/testutil"
	"github.com/waypost-hq/waypost/internal/trip"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a manual
// clock, so two runs of the same scenario produce identical traces.
func Run(scenario *Scenario) (*Result, error) {
	// Scenario runs are self-verifying; engine logs would only add
	// noise to test output.
	restore := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer slog.SetDefault(restore)

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	s, err := script.Load(scenario.Script)
	if err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	start, err := time.Parse(time.RFC3339, scenario.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start timestamp: %w", err)
	}
	clock := testutil.NewClock(start)

	timezone := scenario.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	var schedule map[string]any
	if len(scenario.Schedule) > 0 {
		schedule = make(map[string]any, len(scenario.Schedule))
		for name, raw := range scenario.Schedule {
			schedule[name] = raw
		}
	}

	k := kernel.New(modules.DefaultRegistry())
	r := runner.New(scenario.Name, s, k, st)

	ctx := context.Background()
	tr, err := r.CreateTrip(ctx, scenario.Title, timezone, schedule, clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if step.Advance != "" {
			clock.Advance(trip.Duration(step.Advance))
		}
		if err := executeStep(ctx, r, tr.ID, i, step, clock.Now(), result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	final, err := st.GetTrip(ctx, tr.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final trip: %w", err)
	}
	result.FinalContext = final.EvalContext

	evaluateAssertions(ctx, st, scenario, final, result)
	return result, nil
}

func executeStep(ctx context.Context, r *runner.Runner, tripID string, index int, step Step, now time.Time, result *Result) error {
	entry := StepTrace{Step: index, At: trip.FormatTime(now)}

	switch {
	case step.Invoke != "":
		entry.Kind = "invoke"
		entry.Name = step.Invoke
		passResult, err := r.Invoke(ctx, tripID,
			kernel.Action{Name: step.Invoke, Params: step.Params}, now)
		if err != nil {
			return err
		}
		if err := recordPass(&entry, passResult); err != nil {
			return err
		}
	case step.Event != "":
		entry.Kind = "event"
		entry.Name = step.Event
		passResult, err := r.Deliver(ctx, tripID,
			trip.Event{Type: step.Event, Fields: step.Fields}, now)
		if err != nil {
			return err
		}
		if err := recordPass(&entry, passResult); err != nil {
			return err
		}
	case step.Tick:
		entry.Kind = "tick"
		if err := r.Tick(ctx, now); err != nil {
			return err
		}
	default:
		entry.Kind = "advance"
	}

	result.Trace = append(result.Trace, entry)
	return nil
}

func recordPass(entry *StepTrace, passResult kernel.Result) error {
	for _, op := range passResult.Ops {
		data, err := ops.Marshal(op)
		if err != nil {
			return err
		}
		entry.Ops = append(entry.Ops, data)
	}
	entry.Scheduled = len(passResult.Scheduled)
	return nil
}
