package autosubmit

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"github.com/InfiniCruiser/ymca-backend/internal/services"
)

type Activities struct {
	Log         *logger.Logger
	Submissions services.SubmissionService
}

func (a *Activities) ListDue(ctx context.Context, periodID string) ([]services.DueDraft, error) {
	if a == nil || a.Submissions == nil {
		return nil, fmt.Errorf("autosubmit: activity not configured")
	}
	return a.Submissions.ListDueDrafts(ctx, periodID)
}

// SubmitOne never returns an error for a per-organization failure; the unit
// carries it so one organization cannot fail the period.
func (a *Activities) SubmitOne(ctx context.Context, in SubmitOneInput) (services.AutoSubmitUnit, error) {
	if a == nil || a.Submissions == nil {
		return services.AutoSubmitUnit{}, fmt.Errorf("autosubmit: activity not configured")
	}
	unit := a.Submissions.AutoSubmitDraft(ctx, in.Draft, in.Actor)
	if a.Log != nil && unit.Status == services.AutoSubmitStatusFailed {
		info := activity.GetInfo(ctx)
		a.Log.Warn("auto-submit unit failed",
			"workflow_id", info.WorkflowExecution.ID,
			"organization_id", unit.OrganizationID,
			"submission_id", unit.SubmissionID,
			"error", unit.Error,
		)
	}
	return unit, nil
}
