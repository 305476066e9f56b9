package modules

import (
	"fmt"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/registry"
	"github.com/waypost-hq/waypost/internal/trip"
)

func registerEmail(reg *registry.Registry) {
	reg.RegisterAction("send_email", registry.ActionFunc(sendEmail))
}

// sendEmail describes an email for the transport layer to deliver.
// The recipient address comes from the script role, falling back to
// the role's player record in the context; with no address anywhere,
// the action degrades to a warning.
func sendEmail(params map[string]any, ac trip.ActionContext) ([]ops.Op, error) {
	fromRole, _ := params["from_role_name"].(string)
	toRoleName, _ := params["to_role_name"].(string)
	toRole := ac.ScriptContent.RoleNamed(toRoleName)
	if toRole == nil {
		return []ops.Op{ops.Log{
			Level:   "error",
			Message: fmt.Sprintf("Could not find role named %q.", toRoleName),
		}}, nil
	}

	toEmail := toRole.Email
	if toEmail == "" {
		player, _ := ac.EvalContext[toRoleName].(map[string]any)
		toEmail, _ = player["email"].(string)
	}
	if toEmail == "" {
		return []ops.Op{ops.Log{
			Level:   "warning",
			Message: fmt.Sprintf("Tried to send email but role %q has no email address.", toRoleName),
		}}, nil
	}

	return []ops.Op{ops.SendEmail{
		FromRoleName: fromRole,
		ToEmail:      toEmail,
		Subject:      trip.TemplateText(ac.EvalContext, params["subject"], ac.Location()),
		Body:         trip.TemplateText(ac.EvalContext, params["body"], ac.Location()),
	}}, nil
}
