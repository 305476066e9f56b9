package modules

import (
	"fmt"
	"sort"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

func registerScenes(reg *registry.Registry) {
	reg.RegisterAction("start_scene", registry.ActionFunc(startScene))
	reg.RegisterEvent("scene_started", registry.EventMatcherFunc(matchSceneStarted))
}

// startScene changes the trip's current scene and routes each
// interfaced role to the first page of the new scene, then announces
// the change as a scene_started event. Starting the current scene or a
// global scene is a no-op.
func startScene(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	sceneName, _ := params["scene_name"].(string)
	scene := ac.ScriptContent.SceneNamed(sceneName)
	if scene == nil {
		return []ops.Op{ops.Log{
			Level:   "error",
			Message: fmt.Sprintf("Could not find scene named %q.", sceneName),
		}}, nil
	}
	if sceneName == ac.EvalContext.CurrentSceneName() {
		return nil, nil
	}
	if scene.Global {
		return nil, nil
	}

	// Changing scene resets every role's current page; roles with a
	// page in the new scene land on the first one by name.
	pageNamesByRole := map[string]any{}
	for _, role := range ac.ScriptContent.Roles {
		if role.Interface == "" {
			continue
		}
		var names []string
		for _, page := range ac.ScriptContent.Pages {
			if page.Interface == role.Interface && page.Scene == sceneName {
				names = append(names, page.Name)
			}
		}
		if len(names) > 0 {
			sort.Strings(names)
			pageNamesByRole[role.Name] = names[0]
		}
	}

	oldState, _ := ac.EvalContext["tripState"].(map[string]any)
	newState := make(map[string]any, len(oldState)+2)
	for k, v := range oldState {
		newState[k] = v
	}
	newState["currentSceneName"] = sceneName
	newState["currentPageNamesByRole"] = pageNamesByRole

	return []ops.Op{
		ops.UpdateTripFields{Fields: map[string]any{"tripState": newState}},
		ops.EventOp{Event: trip.Event{
			Type:   "scene_started",
			Fields: map[string]any{"scene": sceneName},
		}},
	}, nil
}

func matchSceneStarted(spec script.EventSpec, ev trip.Event, _ trip.ActionContext) bool {
	return spec.Params["scene"] == ev.Fields["scene"]
}
