package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal       = "codeshift.files.total"
	metricFileDuration     = "codeshift.file.duration.seconds"
	metricRulesTotal       = "codeshift.rules.total"
	metricDiagnosticsTotal = "codeshift.diagnostics.total"

	attrStatus = "status"
	attrRule   = "rule"
)

// fileBucketBoundaries covers 1ms to 10s per file.
var fileBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10}

// MigrationMetrics holds the instruments recorded by a migration run.
type MigrationMetrics struct {
	filesTotal       metric.Int64Counter
	fileDuration     metric.Float64Histogram
	rulesTotal       metric.Int64Counter
	diagnosticsTotal metric.Int64Counter
}

// NewMigrationMetrics creates the instruments from mt.
func NewMigrationMetrics(mt metric.Meter) (*MigrationMetrics, error) {
	b := newMetricBuilder(mt)

	mm := &MigrationMetrics{
		filesTotal:       b.counter(metricFilesTotal, "Files processed, by outcome", "{file}"),
		fileDuration:     b.histogram(metricFileDuration, "Time spent rewriting one file", "s", fileBucketBoundaries...),
		rulesTotal:       b.counter(metricRulesTotal, "Rule applications, by rule and outcome", "{application}"),
		diagnosticsTotal: b.counter(metricDiagnosticsTotal, "Call sites rules reported but left untouched", "{diagnostic}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return mm, nil
}

// RecordFile records one processed file.
func (mm *MigrationMetrics) RecordFile(ctx context.Context, status string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	mm.filesTotal.Add(ctx, 1, attrs)
	mm.fileDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRule records one rule application and its diagnostics.
func (mm *MigrationMetrics) RecordRule(ctx context.Context, rule, status string, diagnostics int) {
	mm.rulesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrRule, rule),
		attribute.String(attrStatus, status),
	))

	if diagnostics > 0 {
		mm.diagnosticsTotal.Add(ctx, int64(diagnostics), metric.WithAttributes(attribute.String(attrRule, rule)))
	}
}
