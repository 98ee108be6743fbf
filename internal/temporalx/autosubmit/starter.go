package autosubmit

import (
	"context"
	"fmt"
	"strings"

	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/InfiniCruiser/ymca-backend/internal/services"
)

// Start launches the period workflow on taskQueue. A run already in flight for
// the period is reused.
func Start(ctx context.Context, tc temporalsdkclient.Client, taskQueue string, in WorkflowInput) (temporalsdkclient.WorkflowRun, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	in.PeriodID = strings.TrimSpace(in.PeriodID)
	if in.PeriodID == "" {
		return nil, fmt.Errorf("missing period_id")
	}
	return tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:                       WorkflowID(in.PeriodID),
		TaskQueue:                taskQueue,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}, WorkflowName, in)
}

// Run starts the workflow and waits for its report.
func Run(ctx context.Context, tc temporalsdkclient.Client, taskQueue string, in WorkflowInput) (services.AutoSubmitReport, error) {
	var report services.AutoSubmitReport
	run, err := Start(ctx, tc, taskQueue, in)
	if err != nil {
		return report, err
	}
	if err := run.Get(ctx, &report); err != nil {
		return report, fmt.Errorf("auto-submit workflow %s: %w", run.GetID(), err)
	}
	return report, nil
}

// Runner exposes the workflow with the same shape as the in-process auto-submit.
type Runner struct {
	Client    temporalsdkclient.Client
	TaskQueue string
}

func (r *Runner) AutoSubmit(ctx context.Context, periodID string, opts services.AutoSubmitOptions) (services.AutoSubmitReport, error) {
	return Run(ctx, r.Client, r.TaskQueue, WorkflowInput{
		PeriodID:    periodID,
		Actor:       opts.Actor,
		Concurrency: opts.Concurrency,
	})
}
