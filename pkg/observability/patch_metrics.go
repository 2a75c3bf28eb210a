package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricTargetsTotal      = "riley.patch.targets.total"
	metricReplacementsTotal = "riley.patch.replacements.total"
	metricTargetDuration    = "riley.patch.target.duration.seconds"

	attrRule = "rule"
)

// targetBucketBoundaries covers 100µs to 5s; targets are single source files.
var targetBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// PatchMetrics holds OTel instruments for source patch runs.
type PatchMetrics struct {
	targetsTotal      metric.Int64Counter
	replacementsTotal metric.Int64Counter
	targetDuration    metric.Float64Histogram
}

// TargetStats is the outcome of one patched target, decoupled from patcher types.
type TargetStats struct {
	Status   string
	Hits     map[string]int
	Duration time.Duration
}

// NewPatchMetrics creates patch metric instruments from the given meter.
func NewPatchMetrics(mt metric.Meter) (*PatchMetrics, error) {
	targets, err := mt.Int64Counter(metricTargetsTotal,
		metric.WithDescription("Patch targets processed by outcome"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTargetsTotal, err)
	}

	replacements, err := mt.Int64Counter(metricReplacementsTotal,
		metric.WithDescription("Rewrites applied by rule"),
		metric.WithUnit("{replacement}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricReplacementsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricTargetDuration,
		metric.WithDescription("Per-target processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(targetBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTargetDuration, err)
	}

	return &PatchMetrics{
		targetsTotal:      targets,
		replacementsTotal: replacements,
		targetDuration:    duration,
	}, nil
}

// RecordTarget records one processed target.
// Safe to call on a nil receiver (no-op).
func (pm *PatchMetrics) RecordTarget(ctx context.Context, stats TargetStats) {
	if pm == nil {
		return
	}

	pm.targetsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, stats.Status)))
	pm.targetDuration.Record(ctx, stats.Duration.Seconds())

	for rule, count := range stats.Hits {
		if count == 0 {
			continue
		}

		pm.replacementsTotal.Add(ctx, int64(count), metric.WithAttributes(attribute.String(attrRule, rule)))
	}
}
