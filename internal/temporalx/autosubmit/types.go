package autosubmit

import "github.com/InfiniCruiser/ymca-backend/internal/services"

const (
	WorkflowName      = "auto_submit_period"
	ActivityListDue   = "auto_submit_list_due"
	ActivitySubmitOne = "auto_submit_organization"
)

type WorkflowInput struct {
	PeriodID    string `json:"period_id"`
	Actor       string `json:"actor,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}

type SubmitOneInput struct {
	Draft services.DueDraft `json:"draft"`
	Actor string            `json:"actor,omitempty"`
}

// WorkflowID keys one run per period so a duplicate trigger attaches to the running one.
func WorkflowID(periodID string) string { return "auto-submit-" + periodID }
