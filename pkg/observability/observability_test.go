package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Sumatoshi-tech/codeshift/pkg/observability"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "codeshift", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Positive(t, cfg.ShutdownTimeoutSec)
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogOutput = &buf
	cfg.LogJSON = true

	providers, err := observability.Init(cfg)
	require.NoError(t, err)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Logger)

	providers.Logger.Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "codeshift", record["service"])
	assert.Equal(t, "cli", record["mode"])

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, observability.ParseLevel(tt.name), tt.name)
	}
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage,=x"))
	assert.Equal(t,
		map[string]string{"authorization": "Bearer t", "x-team": "web"},
		observability.ParseOTLPHeaders("authorization=Bearer t, x-team = web ,broken"),
	)
}

func TestTracingHandler_AddsFileAndSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(slog.NewJSONHandler(&buf, nil), "codeshift", observability.ModeWatch)
	logger := slog.New(handler).With("run", 1).WithGroup("g")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "file")

	ctx = observability.WithFile(ctx, "src/router.js")
	logger.InfoContext(ctx, "rewritten")
	span.End()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "codeshift", record["service"])
	assert.Equal(t, "watch", record["mode"])
	assert.InDelta(t, 1, record["run"], 0)

	group, ok := record["g"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "src/router.js", group["file"])
	assert.Equal(t, span.SpanContext().TraceID().String(), group["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), group["span_id"])
}

func TestFileFromContext(t *testing.T) {
	t.Parallel()

	_, ok := observability.FileFromContext(context.Background())
	assert.False(t, ok)

	_, ok = observability.FileFromContext(observability.WithFile(context.Background(), ""))
	assert.False(t, ok)

	path, ok := observability.FileFromContext(observability.WithFile(context.Background(), "a.ts"))
	assert.True(t, ok)
	assert.Equal(t, "a.ts", path)
}

func TestMigrationMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	mm, err := observability.NewMigrationMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	mm.RecordFile(ctx, "changed", 20*time.Millisecond)
	mm.RecordFile(ctx, "unchanged", time.Millisecond)
	mm.RecordFile(ctx, "changed", 5*time.Millisecond)
	mm.RecordRule(ctx, "vue-router-v4", "applied", 2)
	mm.RecordRule(ctx, "vuex-v4", "unchanged", 0)

	rm := collectMetrics(t, reader)

	files := findMetric(rm, "codeshift.files.total")
	require.NotNil(t, files)

	sum, ok := files.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byStatus := map[string]int64{}
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value("status")
		byStatus[status.AsString()] = dp.Value
	}

	assert.Equal(t, map[string]int64{"changed": 2, "unchanged": 1}, byStatus)

	duration := findMetric(rm, "codeshift.file.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(3), count)

	diagnostics := findMetric(rm, "codeshift.diagnostics.total")
	require.NotNil(t, diagnostics)

	diagSum, ok := diagnostics.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, diagSum.DataPoints, 1)
	assert.Equal(t, int64(2), diagSum.DataPoints[0].Value)

	ruleRuns := findMetric(rm, "codeshift.rules.total")
	require.NotNil(t, ruleRuns)

	ruleSum, ok := ruleRuns.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, ruleSum.DataPoints, 2)
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}

	return nil
}
