package oteladapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
)

func newTestMeter() (*sdkmetric.ManualReader, *oteladapters.MetricsCollector) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return reader, oteladapters.NewMetricsCollector(provider.Meter("test"))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics), "Failed to collect metrics")

	return resourceMetrics
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// arrange
	reader, collector := newTestMeter()

	// act
	collector.RecordDuration("lending_operation_duration_seconds", 150*time.Millisecond, map[string]string{
		"operation": "issue",
		"status":    "success",
	})

	// assert
	histogram := findMetric[metricdata.Histogram[float64]](t, collect(t, reader), "lending_operation_duration_seconds")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001, "duration is recorded in seconds")

	expectedAttrs := attribute.NewSet(
		attribute.String("operation", "issue"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs))
}

func Test_MetricsCollector_IncrementCounter_Reuses_The_Instrument(t *testing.T) {
	// arrange
	reader, collector := newTestMeter()
	labels := map[string]string{"operation": "return", "status": "rejected"}

	// act
	collector.IncrementCounter("lending_operation_calls_total", labels)
	collector.IncrementCounterContext(context.Background(), "lending_operation_calls_total", labels)
	collector.IncrementCounter("lending_operation_calls_total", labels)

	// assert
	counter := findMetric[metricdata.Sum[int64]](t, collect(t, reader), "lending_operation_calls_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(3), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue_Keeps_The_Last_Value(t *testing.T) {
	// arrange
	reader, collector := newTestMeter()
	labels := map[string]string{"item_code": "B1"}

	// act
	collector.RecordValue("lending_item_available_copies", 2, labels)
	collector.RecordValueContext(context.Background(), "lending_item_available_copies", 1, labels)

	// assert
	gauge := findMetric[metricdata.Gauge[float64]](t, collect(t, reader), "lending_item_available_copies")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 1.0, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_Nil_Labels(t *testing.T) {
	// arrange
	reader, collector := newTestMeter()

	// act
	collector.RecordDuration("lending_operation_duration_seconds", time.Millisecond, nil)

	// assert
	histogram := findMetric[metricdata.Histogram[float64]](t, collect(t, reader), "lending_operation_duration_seconds")
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, 0, histogram.DataPoints[0].Attributes.Len())
}

func findMetric[T any](t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) T {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, metric := range scopeMetrics.Metrics {
			if metric.Name != name {
				continue
			}

			if data, ok := metric.Data.(T); ok {
				return data
			}
		}
	}

	t.Fatalf("metric %s not found", name)

	var zero T

	return zero
}
