package kernel

import (
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

// Time events fire a trigger exactly once even when the trigger is
// declared repeatable: a schedule entry represents one moment, and
// re-delivery of the same moment must not re-fire.
const timeOccurredEventType = "time_occurred"

// TriggersForEvent returns the triggers the event fires, in script
// declaration order. The caller is expected to have merged the event
// into ac via WithEvent so that active_if guards can reference it.
func (k *Kernel) TriggersForEvent(ev trip.Event, ac trip.ActionContext) ([]*script.Trigger, error) {
	if ac.ScriptContent == nil {
		return nil, nil
	}
	var fired []*script.Trigger
	for i := range ac.ScriptContent.Triggers {
		trigger := &ac.ScriptContent.Triggers[i]
		active, err := k.isTriggerActive(trigger, ac)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}
		if k.doesEventFireTrigger(trigger, ev, ac) {
			fired = append(fired, trigger)
		}
	}
	return fired, nil
}

// isSceneActive reports whether triggers in the named scene may fire:
// the scene must exist, its active_if guard must pass, and it must
// either be global or be the trip's current scene.
func (k *Kernel) isSceneActive(sceneName string, ac trip.ActionContext) (bool, error) {
	scene := ac.ScriptContent.SceneNamed(sceneName)
	if scene == nil {
		return false, nil
	}
	ok, err := k.eval.Evaluate(ac.EvalContext, scene.ActiveIf)
	if err != nil || !ok {
		return false, err
	}
	if scene.Global {
		return true, nil
	}
	return sceneName == ac.EvalContext.CurrentSceneName(), nil
}

func (k *Kernel) isTriggerActive(trigger *script.Trigger, ac trip.ActionContext) (bool, error) {
	if trigger.Scene != "" {
		ok, err := k.isSceneActive(trigger.Scene, ac)
		if err != nil || !ok {
			return false, err
		}
	}
	ok, err := k.eval.Evaluate(ac.EvalContext, trigger.ActiveIf)
	if err != nil || !ok {
		return false, err
	}
	if !trigger.IsRepeatable() && ac.EvalContext.HistoryEntry(trigger.Name) != "" {
		return false, nil
	}
	return true, nil
}

// doesEventFireTrigger checks the event against the trigger's declared
// pattern for the event's type. An event type with no registered
// matcher fires nothing.
func (k *Kernel) doesEventFireTrigger(trigger *script.Trigger, ev trip.Event, ac trip.ActionContext) bool {
	spec := trigger.EventSpecForType(ev.Type)
	if spec == nil {
		return false
	}
	if ev.Type == timeOccurredEventType && ac.EvalContext.HistoryEntry(trigger.Name) != "" {
		return false
	}
	matcher, ok := k.reg.Event(ev.Type)
	if !ok {
		return false
	}
	return matcher.MatchEvent(*spec, ev, ac)
}
