package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommandRunsTotal = "riley.command.runs.total"
	metricCommandDuration  = "riley.command.duration.seconds"
	metricCommandErrors    = "riley.command.errors.total"

	attrStatus = "status"

	// StatusOK marks a command that returned without error.
	StatusOK = "ok"
	// StatusError marks a command that returned an error.
	StatusError = "error"
)

// commandBucketBoundaries covers 1ms to 60s; commands touch a handful of files.
var commandBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60}

// CommandMetrics holds the rate, error and duration instruments for CLI commands.
type CommandMetrics struct {
	runsTotal   metric.Int64Counter
	duration    metric.Float64Histogram
	errorsTotal metric.Int64Counter
}

// NewCommandMetrics creates command metric instruments from the given meter.
func NewCommandMetrics(mt metric.Meter) (*CommandMetrics, error) {
	runs, err := mt.Int64Counter(metricCommandRunsTotal,
		metric.WithDescription("Total number of command runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandRunsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricCommandDuration,
		metric.WithDescription("Command duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(commandBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandDuration, err)
	}

	errs, err := mt.Int64Counter(metricCommandErrors,
		metric.WithDescription("Total number of failed command runs"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandErrors, err)
	}

	return &CommandMetrics{
		runsTotal:   runs,
		duration:    duration,
		errorsTotal: errs,
	}, nil
}

// RecordRun records a finished command with its status and duration.
// Safe to call on a nil receiver (no-op).
func (cm *CommandMetrics) RecordRun(ctx context.Context, command, status string, duration time.Duration) {
	if cm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrCommand, command),
		attribute.String(attrStatus, status),
	)

	cm.runsTotal.Add(ctx, 1, attrs)
	cm.duration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		cm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCommand, command)))
	}
}
