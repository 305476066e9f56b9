package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/waypost-hq/waypost/internal/store"
	"github.com/waypost-hq/waypost/internal/trip"
)

// evaluateAssertions checks every assertion against the final trip
// state, adding one error per failed check.
func evaluateAssertions(ctx context.Context, st *store.Store, scenario *Scenario, final store.Trip, result *Result) {
	for i, a := range scenario.Assertions {
		switch a.Type {
		case AssertContextValue:
			got := trip.Get(final.EvalContext, a.Ref)
			if !valuesEqual(got, a.Value) {
				result.AddError(fmt.Sprintf(
					"assertions[%d]: context %s = %v, want %v", i, a.Ref, got, a.Value))
			}
		case AssertHistoryContains:
			if final.EvalContext.HistoryEntry(a.Trigger) == "" {
				result.AddError(fmt.Sprintf(
					"assertions[%d]: trigger %s never fired", i, a.Trigger))
			}
		case AssertMessageCount:
			messages, err := st.ListMessages(ctx, final.ID)
			if err != nil {
				result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
				continue
			}
			if len(messages) != a.Count {
				result.AddError(fmt.Sprintf(
					"assertions[%d]: %d message(s), want %d", i, len(messages), a.Count))
			}
		case AssertMessageContains:
			messages, err := st.ListMessages(ctx, final.ID)
			if err != nil {
				result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
				continue
			}
			if !anyMessageMatches(messages, a) {
				result.AddError(fmt.Sprintf(
					"assertions[%d]: no message matching from=%q to=%q content=%q",
					i, a.From, a.To, a.Content))
			}
		case AssertScheduledCount:
			scheduled, err := st.ListScheduledActions(ctx, final.ID)
			if err != nil {
				result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
				continue
			}
			if len(scheduled) != a.Count {
				result.AddError(fmt.Sprintf(
					"assertions[%d]: %d scheduled action(s), want %d",
					i, len(scheduled), a.Count))
			}
		}
	}
}

func anyMessageMatches(messages []store.Message, a Assertion) bool {
	for _, m := range messages {
		if a.From != "" && m.FromRole != a.From {
			continue
		}
		if a.To != "" && m.ToRole != a.To {
			continue
		}
		if a.Content != "" && !strings.Contains(m.Content, a.Content) {
			continue
		}
		return true
	}
	return false
}

// valuesEqual compares an expected YAML value to a stored context
// value. Stored numbers come back as float64, so ints from the
// scenario file are compared numerically.
func valuesEqual(got, want any) bool {
	if gn, ok := asNumber(got); ok {
		if wn, ok := asNumber(want); ok {
			return gn == wn
		}
	}
	return reflect.DeepEqual(got, want)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
