package modules

import (
	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

func registerCues(reg *registry.Registry) {
	reg.RegisterAction("signal_cue", registry.ActionFunc(signalCue))
	reg.RegisterEvent("cue_signaled", registry.EventMatcherFunc(matchCueSignaled))
}

// signalCue raises a named cue as an event; any trigger listening for
// it picks it up in the same pass.
func signalCue(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	cueName, _ := params["cue_name"].(string)
	return []ops.Op{ops.EventOp{Event: trip.Event{
		Type:   "cue_signaled",
		Fields: map[string]any{"cue": cueName},
	}}}, nil
}

func matchCueSignaled(spec script.EventSpec, ev trip.Event, _ trip.ActionContext) bool {
	return spec.Params["cue"] == ev.Fields["cue"]
}
