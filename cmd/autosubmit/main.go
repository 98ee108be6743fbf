// Command autosubmit submits every outstanding draft of a period. It starts the
// Temporal workflow when TEMPORAL_ADDRESS is set and runs in process otherwise.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/InfiniCruiser/ymca-backend/internal/app"
	"github.com/InfiniCruiser/ymca-backend/internal/services"
	"github.com/InfiniCruiser/ymca-backend/internal/temporalx/autosubmit"
)

func main() {
	var (
		periodID    = flag.String("period", "", "period to auto-submit (required)")
		actor       = flag.String("actor", "system", "value stamped into auto_submitted_by")
		concurrency = flag.Int("concurrency", 0, "organizations submitted in parallel (0 uses AUTO_SUBMIT_CONCURRENCY)")
		inProcess   = flag.Bool("in-process", false, "skip Temporal even when configured")
	)
	flag.Parse()

	if strings.TrimSpace(*periodID) == "" {
		fmt.Fprintln(os.Stderr, "missing -period")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	opts := services.AutoSubmitOptions{Actor: *actor, Concurrency: *concurrency}
	log := a.Log.With("period_id", *periodID)

	var report services.AutoSubmitReport
	if a.Temporal != nil && !*inProcess {
		log.Info("Starting auto-submit workflow", "task_queue", a.Cfg.Temporal.TaskQueue)
		runner := &autosubmit.Runner{Client: a.Temporal, TaskQueue: a.Cfg.TemporalConfig().TaskQueue}
		report, err = runner.AutoSubmit(ctx, *periodID, opts)
	} else {
		log.Info("Running auto-submit in process")
		report, err = a.Services.Submission.AutoSubmit(ctx, *periodID, opts)
	}
	if err != nil {
		log.Error("Auto-submit failed", "error", err)
		a.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("Encode report failed", "error", err)
	}
	log.Info("Auto-submit finished",
		"total", report.Total,
		"submitted", report.Submitted,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	if report.Failed > 0 {
		a.Close()
		os.Exit(3)
	}
}
