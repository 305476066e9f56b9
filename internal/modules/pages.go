package modules

import (
	"fmt"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/trip"
)

func registerPages(reg *registry.Registry) {
	reg.RegisterAction("send_to_page", registry.ActionFunc(sendToPage))
}

// sendToPage routes one role to a page, or off its current page when
// the page name is "null". The role name "current" resolves to the
// role the triggering event belongs to.
func sendToPage(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	roleName, _ := params["role_name"].(string)
	if roleName == "current" {
		roleName = currentRoleName(ac)
		if roleName == "" {
			return []ops.Op{ops.Log{
				Level:   "error",
				Message: "Could not resolve current role for send_to_page.",
			}}, nil
		}
	}
	if ac.ScriptContent.RoleNamed(roleName) == nil {
		return []ops.Op{ops.Log{
			Level:   "error",
			Message: fmt.Sprintf("Could not find role named %q.", roleName),
		}}, nil
	}

	pageName, _ := params["page_name"].(string)
	if pageName == "null" {
		pageName = ""
	} else if ac.ScriptContent.PageNamed(pageName) == nil {
		return []ops.Op{ops.Log{
			Level:   "error",
			Message: fmt.Sprintf("Could not find page named %q.", pageName),
		}}, nil
	}

	oldState, _ := ac.EvalContext["tripState"].(map[string]any)
	oldPages, _ := oldState["currentPageNamesByRole"].(map[string]any)
	newPages := make(map[string]any, len(oldPages)+1)
	for k, v := range oldPages {
		newPages[k] = v
	}
	newPages[roleName] = pageName

	newState := make(map[string]any, len(oldState)+1)
	for k, v := range oldState {
		newState[k] = v
	}
	newState["currentPageNamesByRole"] = newPages

	return []ops.Op{ops.UpdateTripFields{
		Fields: map[string]any{"tripState": newState},
	}}, nil
}

func currentRoleName(ac trip.ActionContext) string {
	if ac.CurrentRoleName != "" {
		return ac.CurrentRoleName
	}
	event, _ := ac.EvalContext["event"].(map[string]any)
	name, _ := event["role_name"].(string)
	return name
}
