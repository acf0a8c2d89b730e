package model

import (
	"fmt"
	"time"
)

type TemplateName string

const (
	TEMPLATE_MEETING_BOT    TemplateName = "meeting-bot"
	TEMPLATE_BUSY_SLOTS     TemplateName = "busy-slots"
	TEMPLATE_EXTEND_MEETING TemplateName = "extend-meeting"
	TEMPLATE_CV_PROCESSING  TemplateName = "cv-processing"
)

// TemplateNames is the fixed provisioning order.
var TemplateNames = []TemplateName{
	TEMPLATE_MEETING_BOT,
	TEMPLATE_BUSY_SLOTS,
	TEMPLATE_EXTEND_MEETING,
	TEMPLATE_CV_PROCESSING,
}

func ToTemplateName(s string) (TemplateName, error) {
	for _, n := range TemplateNames {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("invalid template name %s", s)
}

// WorkflowTemplate is the canonical, user independent definition of one
// workflow family.
type WorkflowTemplate struct {
	Name     TemplateName `json:"name"`
	Workflow *Workflow    `json:"workflow"`
}

// InstanceName is the remote workflow name used for a user's copy of a
// template. It is deterministic so a lost create can be found again by name.
func InstanceName(template TemplateName, userId string) string {
	return fmt.Sprintf("%s [%s]", template, userId)
}

// WorkflowInstance is a template instantiated on the engine for one user.
type WorkflowInstance struct {
	RemoteId  string       `json:"remoteId"`
	UserId    string       `json:"userId"`
	Template  TemplateName `json:"template"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"createdAt"`
}
