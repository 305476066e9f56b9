package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

func pageContext() trip.ActionContext {
	return trip.ActionContext{
		ScriptContent: &script.Script{
			Roles: []script.Role{{Name: "Tablet"}},
			Pages: []script.Page{{Name: "PAGE-ONE"}, {Name: "PAGE-ZERO"}},
		},
		EvalContext: trip.EvalContext{
			"tripState": map[string]any{
				"currentSceneName":       "SCENE",
				"currentPageNamesByRole": map[string]any{"Tablet": "PAGE-ZERO"},
			},
		},
	}
}

func TestSendToPage(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("send_to_page")

	got, err := action.GetOps(map[string]any{
		"role_name": "Tablet", "page_name": "PAGE-ONE",
	}, pageContext())
	require.NoError(t, err)

	assert.Equal(t, []ops.Op{ops.UpdateTripFields{Fields: map[string]any{
		"tripState": map[string]any{
			"currentSceneName":       "SCENE",
			"currentPageNamesByRole": map[string]any{"Tablet": "PAGE-ONE"},
		},
	}}}, got)
}

func TestSendToPageNull(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("send_to_page")

	got, err := action.GetOps(map[string]any{
		"role_name": "Tablet", "page_name": "null",
	}, pageContext())
	require.NoError(t, err)

	fields := got[0].(ops.UpdateTripFields).Fields
	state := fields["tripState"].(map[string]any)
	pages := state["currentPageNamesByRole"].(map[string]any)
	assert.Equal(t, "", pages["Tablet"])
}

func TestSendToPageCurrentRole(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("send_to_page")

	ac := pageContext()
	ac.EvalContext = ac.EvalContext.Merge(map[string]any{
		"event": map[string]any{"type": "text_received", "role_name": "Tablet"},
	})
	got, err := action.GetOps(map[string]any{
		"role_name": "current", "page_name": "PAGE-ONE",
	}, ac)
	require.NoError(t, err)

	fields := got[0].(ops.UpdateTripFields).Fields
	state := fields["tripState"].(map[string]any)
	pages := state["currentPageNamesByRole"].(map[string]any)
	assert.Equal(t, "PAGE-ONE", pages["Tablet"])
}

func TestSendToPageUnknownRole(t *testing.T) {
	reg := DefaultRegistry()
	action, _ := reg.Action("send_to_page")

	got, err := action.GetOps(map[string]any{
		"role_name": "Nobody", "page_name": "PAGE-ONE",
	}, pageContext())
	require.NoError(t, err)
	require.Len(t, got, 1)
	logOp, ok := got[0].(ops.Log)
	require.True(t, ok)
	assert.Equal(t, "error", logOp.Level)
}
