package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

// Metrics is a small Prometheus-text registry. A nil *Metrics is valid and drops
// every observation, so callers never need to check whether metrics are enabled.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	autoSubmitUnits *CounterVec
	scoring         *CounterVec
	events          *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry; it returns nil when disabled.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	latencyBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	return &Metrics{
		apiRequests: NewCounterVec("ysa_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ysa_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			latencyBuckets,
		),
		apiInflight: NewGauge("ysa_api_inflight_requests", "In-flight API requests."),

		aggregateOps: NewCounterVec("ysa_aggregate_operations_total", "Aggregate write operations by op/status.", []string{"op", "status"}),
		aggregateLatency: NewHistogramVec(
			"ysa_aggregate_operation_duration_seconds",
			"Aggregate write latency in seconds by op/status.",
			[]string{"op", "status"},
			latencyBuckets,
		),
		aggregateConflicts: NewCounterVec("ysa_aggregate_conflicts_total", "Aggregate write conflicts by op.", []string{"op"}),
		aggregateRetries:   NewCounterVec("ysa_aggregate_retryable_total", "Aggregate retryable failures by op.", []string{"op"}),

		autoSubmitUnits: NewCounterVec("ysa_auto_submit_units_total", "Per-organization auto-submit outcomes.", []string{"status"}),
		scoring:         NewCounterVec("ysa_performance_calculations_total", "Performance calculation outcomes.", []string{"outcome"}),
		events:          NewCounterVec("ysa_events_published_total", "Post-commit event publish attempts.", []string{"type", "status"}),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.autoSubmitUnits, m.scoring, m.events,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

// IncAutoSubmitUnit counts one organization's outcome: submitted, failed or skipped.
func (m *Metrics) IncAutoSubmitUnit(status string) {
	if m == nil {
		return
	}
	m.autoSubmitUnits.Inc(status)
}

// IncPerformanceCalculation counts created, existing, reread or failed outcomes.
func (m *Metrics) IncPerformanceCalculation(outcome string) {
	if m == nil {
		return
	}
	m.scoring.Inc(outcome)
}

func (m *Metrics) IncEventPublished(eventType, status string) {
	if m == nil {
		return
	}
	m.events.Inc(eventType, status)
}
