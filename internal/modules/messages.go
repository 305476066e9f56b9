package modules

import (
	"strings"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/trip"
)

func registerMessages(reg *registry.Registry) {
	reg.RegisterAction("send_text", registry.ActionFunc(sendText))
	reg.RegisterAction("send_image", registry.ActionFunc(sendImage))
	reg.RegisterAction("custom_message", registry.ActionFunc(customMessage))
	reg.RegisterEvent("text_received", matchMessageEvent{})
	reg.RegisterEvent("image_received", matchMessageEvent{})
}

func sendText(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	return messageOps(params, ac, "text")
}

func sendImage(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	return messageOps(params, ac, "image")
}

// customMessage sends a message whose medium comes from the script,
// used for player-authored content relayed through a trigger.
func customMessage(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	medium, _ := params["medium"].(string)
	if medium == "" {
		medium = "text"
	}
	return messageOps(params, ac, medium)
}

// messageOps records the message and raises the matching
// <medium>_received event so triggers can react to the content.
func messageOps(params map[string]any, ac trip.ActionContext, medium string) ([]ops.Op, error) {
	fromRole, _ := params["from_role_name"].(string)
	toRole, _ := params["to_role_name"].(string)
	content := trip.TemplateText(ac.EvalContext, params["content"], ac.Location())
	return []ops.Op{
		ops.CreateMessage{
			FromRoleName: fromRole,
			ToRoleName:   toRole,
			Medium:       medium,
			Content:      content,
		},
		ops.EventOp{Event: trip.Event{
			Type: medium + "_received",
			Fields: map[string]any{
				"from":    fromRole,
				"to":      toRole,
				"medium":  medium,
				"content": content,
			},
		}},
	}, nil
}

// matchMessageEvent matches message events on optional from, to, and
// contains patterns; an empty pattern matches any message of the
// event's medium.
type matchMessageEvent struct{}

func (matchMessageEvent) MatchEvent(spec script.EventSpec, ev trip.Event, _ trip.ActionContext) bool {
	if from, _ := spec.Params["from"].(string); from != "" && from != ev.GetString("from") {
		return false
	}
	if to, _ := spec.Params["to"].(string); to != "" && to != ev.GetString("to") {
		return false
	}
	if contains, _ := spec.Params["contains"].(string); contains != "" {
		content := ev.GetString("content")
		if !strings.Contains(trip.Fold(content), trip.Fold(contains)) {
			return false
		}
	}
	return true
}
