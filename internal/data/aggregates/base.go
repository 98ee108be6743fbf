package aggregates

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	Now      func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeWriteWithConflictRetry reruns the whole transaction while it fails with
// CodeConflict, up to attempts times. fn must be safe to rerun from scratch.
func executeWriteWithConflictRetry(ctx context.Context, deps BaseDeps, op string, attempts int, fn func(dbc dbctx.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = executeWrite(ctx, deps, op, fn)
		if err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) {
			return err
		}
		if ctx.Err() != nil {
			return MapError(op, ctx.Err())
		}
		if deps.Log != nil {
			deps.Log.Debug("aggregate write conflict, retrying", "op", op, "attempt", i+1)
		}
	}
	return err
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
