package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for run metrics.
const MeterName = "chameneos/rendezvous"

// Metrics holds the run instruments.
type Metrics struct {
	RunsTotal        metric.Int64Counter
	MeetingsTotal    metric.Int64Counter
	CASFailuresTotal metric.Int64Counter
	BackoffsTotal    metric.Int64Counter
	TapDroppedTotal  metric.Int64Counter
	RunDuration      metric.Float64Histogram
}

// RunStats is what one finished run contributes to the instruments.
type RunStats struct {
	Strategy    string
	Actors      int
	Meetings    uint64
	CASFailures uint64
	Backoffs    uint64
	TapDropped  uint64
	Elapsed     time.Duration
	Failed      bool
}

// NewMetrics registers every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RunsTotal, err = meter.Int64Counter(
		"chameneos_runs_total",
		metric.WithDescription("Completed rendezvous runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs_total: %w", err)
	}

	m.MeetingsTotal, err = meter.Int64Counter(
		"chameneos_meetings_total",
		metric.WithDescription("Meetings completed across runs"),
		metric.WithUnit("{meeting}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create meetings_total: %w", err)
	}

	m.CASFailuresTotal, err = meter.Int64Counter(
		"chameneos_cas_failures_total",
		metric.WithDescription("Lost compare-and-swap commits on the shared word"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cas_failures_total: %w", err)
	}

	m.BackoffsTotal, err = meter.Int64Counter(
		"chameneos_backoffs_total",
		metric.WithDescription("Idle waits taken by workers with nobody to meet"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create backoffs_total: %w", err)
	}

	m.TapDroppedTotal, err = meter.Int64Counter(
		"chameneos_tap_dropped_total",
		metric.WithDescription("Meeting events dropped by a full tap ring"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create tap_dropped_total: %w", err)
	}

	m.RunDuration, err = meter.Float64Histogram(
		"chameneos_run_duration_seconds",
		metric.WithDescription("Wall time of one run"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("create run_duration: %w", err)
	}

	return m, nil
}

// NewDefaultMetrics registers on the global meter provider.
func NewDefaultMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(MeterName))
}

// RecordRun adds one run. A nil receiver records nothing.
func (m *Metrics) RecordRun(ctx context.Context, s RunStats) {
	if m == nil {
		return
	}
	strategy := attribute.String("strategy", s.Strategy)
	actors := attribute.Int("actors", s.Actors)
	attrs := metric.WithAttributes(strategy, actors)
	status := "ok"
	if s.Failed {
		status = "error"
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(strategy, actors, attribute.String("status", status)))
	m.MeetingsTotal.Add(ctx, int64(s.Meetings), attrs)
	m.CASFailuresTotal.Add(ctx, int64(s.CASFailures), attrs)
	m.BackoffsTotal.Add(ctx, int64(s.Backoffs), attrs)
	m.TapDroppedTotal.Add(ctx, int64(s.TapDropped), attrs)
	m.RunDuration.Record(ctx, s.Elapsed.Seconds(), attrs)
}
