package autosubmit

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/InfiniCruiser/ymca-backend/internal/services"
)

const defaultConcurrency = 4

func Workflow(ctx workflow.Context, in WorkflowInput) (services.AutoSubmitReport, error) {
	periodID := strings.TrimSpace(in.PeriodID)
	report := services.AutoSubmitReport{PeriodID: periodID, StartedAt: workflow.Now(ctx), Units: []services.AutoSubmitUnit{}}
	if periodID == "" {
		return report, temporal.NewNonRetryableApplicationError("autosubmit: missing period_id", "validation", nil)
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	})

	var due []services.DueDraft
	if err := workflow.ExecuteActivity(ctx, ActivityListDue, periodID).Get(ctx, &due); err != nil {
		return report, err
	}

	limit := in.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	for start := 0; start < len(due); start += limit {
		end := start + limit
		if end > len(due) {
			end = len(due)
		}
		batch := due[start:end]
		futures := make([]workflow.Future, len(batch))
		for i, d := range batch {
			futures[i] = workflow.ExecuteActivity(ctx, ActivitySubmitOne, SubmitOneInput{Draft: d, Actor: in.Actor})
		}
		for i, f := range futures {
			var unit services.AutoSubmitUnit
			if err := f.Get(ctx, &unit); err != nil {
				// Retries exhausted; record it and keep going.
				unit = services.AutoSubmitUnit{
					OrganizationID: batch[i].OrganizationID,
					SubmissionID:   batch[i].SubmissionID,
					Version:        batch[i].Version,
					Status:         services.AutoSubmitStatusFailed,
					Error:          fmt.Sprintf("activity failed: %v", err),
				}
			}
			report.Add(unit)
		}
	}

	report.FinishedAt = workflow.Now(ctx)
	workflow.GetLogger(ctx).Info("auto-submit period finished",
		"period_id", periodID,
		"total", report.Total,
		"submitted", report.Submitted,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}
