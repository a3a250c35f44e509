package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider and returns the
// reader plus a cleanup function restoring the original provider.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordNodeExecution(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records execution count", func(t *testing.T) {
		m.RecordNodeExecution(ctx, "parse_user_prompt", 50*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "tripflow.node.executions")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")
		require.NotEmpty(t, sum.DataPoints)

		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "node_id" && attr.Value.AsString() == "parse_user_prompt" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(1))
				}
			}
		}
		assert.True(t, found, "Expected to find datapoint for node_id=parse_user_prompt")
	})

	t.Run("records latency", func(t *testing.T) {
		m.RecordNodeExecution(ctx, "find_flights", 100*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "tripflow.node.latency_ms")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})

	t.Run("records errors when present", func(t *testing.T) {
		m.RecordNodeExecution(ctx, "failing", 10*time.Millisecond, errors.New("node failed"))

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "tripflow.node.errors")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")
		require.NotEmpty(t, sum.DataPoints)

		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "node_id" && attr.Value.AsString() == "failing" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(1))
				}
			}
		}
		assert.True(t, found, "Expected to find error datapoint")
	})
}

func TestRecordGraphRun(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records successful runs", func(t *testing.T) {
		m.RecordGraphRun(ctx, true, 500*time.Millisecond)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "tripflow.graph.runs")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.NotEmpty(t, sum.DataPoints)
	})

	t.Run("records graph latency", func(t *testing.T) {
		m.RecordGraphRun(ctx, false, 200*time.Millisecond)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "tripflow.graph.latency_ms")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})
}

func TestRecordJournalWrite(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordJournalWrite(context.Background(), "compile_plan", 2048)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "tripflow.journal.size_bytes")
	require.NotNil(t, metric)

	hist, ok := metric.Data.(metricdata.Histogram[int64])
	require.True(t, ok, "Expected Histogram[int64] type")
	require.NotEmpty(t, hist.DataPoints)

	found := false
	for _, dp := range hist.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if attr.Key == "node_id" && attr.Value.AsString() == "compile_plan" {
				found = true
				assert.Greater(t, dp.Count, uint64(0))
			}
		}
	}
	assert.True(t, found, "Expected to find datapoint for compile_plan")
}

func TestNewOtelMetrics_Creation(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.NotNil(t, m.nodeExecutions)
	assert.NotNil(t, m.nodeLatency)
	assert.NotNil(t, m.nodeErrors)
	assert.NotNil(t, m.graphRuns)
	assert.NotNil(t, m.graphLatency)
	assert.NotNil(t, m.journalSize)
}
