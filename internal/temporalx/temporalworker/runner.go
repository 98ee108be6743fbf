package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"github.com/InfiniCruiser/ymca-backend/internal/services"
	"github.com/InfiniCruiser/ymca-backend/internal/temporalx"
	"github.com/InfiniCruiser/ymca-backend/internal/temporalx/autosubmit"
)

type Runner struct {
	log *logger.Logger
	cfg temporalx.Config

	tc          temporalsdkclient.Client
	submissions services.SubmissionService

	startMaxWait time.Duration
}

func NewRunner(log *logger.Logger, cfg temporalx.Config, tc temporalsdkclient.Client, submissions services.SubmissionService) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if submissions == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:          log,
		cfg:          cfg,
		tc:           tc,
		submissions:  submissions,
		startMaxWait: 60 * time.Second,
	}, nil
}

// Start polls the task queue until ctx is done. It retries worker start while
// the frontend or namespace is not ready.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	taskQueue := r.taskQueue()
	if r.log != nil {
		r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", taskQueue)
	}

	deadline := time.Now().Add(r.startMaxWait)
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			if r.log != nil {
				r.log.Info("Temporal worker started", "namespace", r.cfg.Namespace, "task_queue", taskQueue, "attempts", attempt)
			}
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		missingNamespace := errors.As(startErr, &nfe)
		if missingNamespace && r.cfg.AutoRegisterNamespace {
			_ = temporalx.EnsureNamespace(ctx, r.log, r.cfg)
		}
		if time.Now().After(deadline) {
			if missingNamespace {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return startErr
		}
		if r.log != nil {
			r.log.Warn("Temporal worker failed to start; retrying", "task_queue", taskQueue, "attempt", attempt, "error", startErr)
		}
		time.Sleep(time.Duration(attempt) * 250 * time.Millisecond)
	}
}

func (r *Runner) taskQueue() string {
	if r.cfg.TaskQueue == "" {
		return temporalx.DefaultTaskQueue
	}
	return r.cfg.TaskQueue
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := r.cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 4
	}
	w := worker.New(r.tc, r.taskQueue(), worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	Register(w, &autosubmit.Activities{Log: r.log, Submissions: r.submissions})
	return w
}

// Register binds the auto-submit workflow and activities under their stable names.
func Register(w worker.Registry, acts *autosubmit.Activities) {
	w.RegisterWorkflowWithOptions(autosubmit.Workflow, workflow.RegisterOptions{Name: autosubmit.WorkflowName})
	w.RegisterActivityWithOptions(acts.ListDue, activity.RegisterOptions{Name: autosubmit.ActivityListDue})
	w.RegisterActivityWithOptions(acts.SubmitOne, activity.RegisterOptions{Name: autosubmit.ActivitySubmitOne})
}
