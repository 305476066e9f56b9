package modules

import (
	"fmt"
	"strings"
	"time"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

func registerTiming(reg *registry.Registry) {
	reg.RegisterAction("wait", registry.ActionFunc(wait))
	reg.RegisterAction("wait_for_time", registry.ActionFunc(waitForTime))
	reg.RegisterAction("wait_before_time", registry.ActionFunc(waitBeforeTime))
	reg.RegisterEvent("time_occurred", registry.EventMatcherFunc(matchTimeOccurred))
}

// wait defers later actions in the trigger by a relative duration.
func wait(params map[string]any, _ trip.ActionContext) ([]ops.Op, error) {
	duration, _ := params["duration"].(string)
	return []ops.Op{ops.Wait{Seconds: trip.Duration(duration).Seconds()}}, nil
}

// waitForTime defers later actions until a named schedule entry.
func waitForTime(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	until, _ := params["until"].(string)
	at, err := scheduleTime(ac.EvalContext, until)
	if err != nil {
		return []ops.Op{ops.Log{Level: "error", Message: err.Error()}}, nil
	}
	return []ops.Op{ops.Wait{Until: at}}, nil
}

// waitBeforeTime defers later actions until a duration before a named
// schedule entry.
func waitBeforeTime(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	until, _ := params["until"].(string)
	before, _ := params["before"].(string)
	at, err := scheduleTime(ac.EvalContext, until)
	if err != nil {
		return []ops.Op{ops.Log{Level: "error", Message: err.Error()}}, nil
	}
	return []ops.Op{ops.Wait{Until: at.Add(-trip.Duration(before))}}, nil
}

// matchTimeOccurred fires once the event's timestamp has reached the
// named schedule entry, shifted by an optional signed offset
// ("-10m" fires ten minutes early). A missing or unparseable schedule
// entry never fires.
func matchTimeOccurred(spec script.EventSpec, ev trip.Event, ac trip.ActionContext) bool {
	name, _ := spec.Params["time"].(string)
	scheduled, err := scheduleTime(ac.EvalContext, name)
	if err != nil {
		return false
	}
	if offset, ok := spec.Params["offset"].(string); ok {
		scheduled = scheduled.Add(offsetDuration(offset))
	}
	occurred, err := trip.ParseTime(ev.GetString("timestamp"))
	if err != nil {
		return false
	}
	return !occurred.Before(scheduled)
}

// scheduleTime looks up and parses a named entry of the context's
// schedule map.
func scheduleTime(ec trip.EvalContext, name string) (time.Time, error) {
	schedule, _ := ec["schedule"].(map[string]any)
	raw, _ := schedule[name].(string)
	if raw == "" {
		return time.Time{}, fmt.Errorf("could not find schedule entry %q", name)
	}
	at, err := trip.ParseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse schedule entry %q: %v", name, err)
	}
	return at, nil
}

func offsetDuration(shorthand string) time.Duration {
	if rest, ok := strings.CutPrefix(shorthand, "-"); ok {
		return -trip.Duration(rest)
	}
	return trip.Duration(shorthand)
}
