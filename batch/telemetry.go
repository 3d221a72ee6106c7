package batch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/probeops/check"
	"github.com/jonwraymond/probeops/observe"
)

const instrumentationName = "github.com/jonwraymond/probeops/batch"

// telemetry holds the runner's tracer, logger, and metric instruments.
// A nil Observer yields noop implementations so an uninstrumented runner
// carries no telemetry cost.
type telemetry struct {
	tracer trace.Tracer
	logger observe.Logger

	checksTotal   metric.Int64Counter
	timeoutsTotal metric.Int64Counter
	batchDuration metric.Float64Histogram
}

func newTelemetry(obs observe.Observer) (*telemetry, error) {
	var (
		tracer trace.Tracer
		meter  metric.Meter
		logger observe.Logger
	)
	if obs != nil {
		tracer = obs.Tracer()
		meter = obs.Meter()
		logger = obs.Logger()
	} else {
		tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
		logger = observe.NopLogger()
	}

	checksTotal, err := meter.Int64Counter(
		"batch.checks.total",
		metric.WithDescription("Total number of executed checks by outcome kind"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	timeoutsTotal, err := meter.Int64Counter(
		"batch.checks.timeouts",
		metric.WithDescription("Total number of synthesized timeout outcomes"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	batchDuration, err := meter.Float64Histogram(
		"batch.duration_ms",
		metric.WithDescription("Batch run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &telemetry{
		tracer:        tracer,
		logger:        logger,
		checksTotal:   checksTotal,
		timeoutsTotal: timeoutsTotal,
		batchDuration: batchDuration,
	}, nil
}

func (t *telemetry) recordCheck(ctx context.Context, checkType string, out check.Outcome, timedOut bool) {
	opt := metric.WithAttributes(
		attribute.String("check.type", checkType),
		attribute.String("outcome.kind", out.Kind.String()),
	)
	t.checksTotal.Add(ctx, 1, opt)
	if timedOut {
		t.timeoutsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("check.type", checkType)))
	}
}

func (t *telemetry) recordBatch(ctx context.Context, res *Result, elapsed time.Duration) {
	t.batchDuration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(
		attribute.Int("batch.size", len(res.Items)),
	))
}
