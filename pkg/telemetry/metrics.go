package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce           sync.Once
	metricsInitErr        error
	composeCounter        metric.Int64Counter
	composeSkippedCounter metric.Int64Counter
	applyCounter          metric.Int64Counter
	applyLatencyHistogram metric.Float64Histogram
)

// ComposeMetrics captures the fields needed to record a composition attempt.
type ComposeMetrics struct {
	Pipeline string
	Policy   string
	Outcome  string // ok, unknown_identifier
	Stages   int
	Skipped  int
}

// RecordCompose emits counters describing one composition attempt.
func RecordCompose(ctx context.Context, m ComposeMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("pipeline.name", m.Pipeline),
		attribute.String("compose.policy", m.Policy),
		attribute.String("compose.outcome", m.Outcome),
	}

	composeCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if m.Skipped > 0 {
		composeSkippedCounter.Add(ctx, int64(m.Skipped), metric.WithAttributes(attrs...))
	}
}

// ApplyMetrics captures the fields needed to record one pipeline application.
type ApplyMetrics struct {
	Pipeline string
	Stages   int
	Duration time.Duration
}

// RecordApply emits the apply counter and latency histogram.
func RecordApply(ctx context.Context, m ApplyMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("pipeline.name", m.Pipeline),
		attribute.Int("pipeline.stages", m.Stages),
	}

	applyCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if m.Duration > 0 {
		applyLatencyHistogram.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("chainline.pipeline")

		composeCounter, metricsInitErr = meter.Int64Counter(
			"chainline.compose.attempts_total",
			metric.WithDescription("Pipeline composition attempts partitioned by policy and outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		composeSkippedCounter, metricsInitErr = meter.Int64Counter(
			"chainline.compose.skipped_identifiers_total",
			metric.WithDescription("Identifiers skipped by compositions running under skip_unresolved"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		applyCounter, metricsInitErr = meter.Int64Counter(
			"chainline.apply.total",
			metric.WithDescription("Pipeline applications"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		applyLatencyHistogram, metricsInitErr = meter.Float64Histogram(
			"chainline.apply.duration_ms",
			metric.WithDescription("Pipeline application latency in milliseconds"),
			metric.WithUnit("ms"),
		)
	})
	return metricsInitErr
}
