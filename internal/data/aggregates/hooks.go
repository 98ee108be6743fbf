package aggregates

import (
	"strings"
	"time"

	"github.com/InfiniCruiser/ymca-backend/internal/observability"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type observabilityHooks struct {
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewObservabilityHooks creates aggregate hooks backed by observability metrics.
// Failed operations are also logged when log is non-nil.
func NewObservabilityHooks(metrics *observability.Metrics, log *logger.Logger) Hooks {
	if metrics == nil && log == nil {
		return noopHooks{}
	}
	if log != nil {
		log = log.With("component", "AggregateHooks")
	}
	return &observabilityHooks{metrics: metrics, log: log}
}

func (h *observabilityHooks) ObserveOperation(name, status string, dur time.Duration) {
	if h == nil {
		return
	}
	name = strings.TrimSpace(name)
	status = strings.TrimSpace(status)
	h.metrics.ObserveAggregateOperation(name, status, dur)
	if h.log != nil && status != "success" {
		h.log.Warn("aggregate operation failed", "op", name, "status", status, "duration_ms", dur.Milliseconds())
	}
}

func (h *observabilityHooks) IncConflict(name string) {
	if h == nil {
		return
	}
	h.metrics.IncAggregateConflict(strings.TrimSpace(name))
}

func (h *observabilityHooks) IncRetry(name string) {
	if h == nil {
		return
	}
	h.metrics.IncAggregateRetry(strings.TrimSpace(name))
}
