package promadapters_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending/promadapters"
)

func gather(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}

	t.Fatalf("metric family %s not found", name)

	return nil
}

func Test_MetricsCollector_Counts_Per_Label_Set(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	// act
	collector.IncrementCounter("lending_operation_calls_total", map[string]string{"operation": "issue", "status": "success"})
	collector.IncrementCounter("lending_operation_calls_total", map[string]string{"status": "success", "operation": "issue"})
	collector.IncrementCounter("lending_operation_calls_total", map[string]string{"operation": "issue", "status": "rejected"})

	// assert
	family := gather(t, registry, "lending_operation_calls_total")
	assert.Equal(t, dto.MetricType_COUNTER, family.GetType())
	require.Len(t, family.GetMetric(), 2)
	assert.Equal(t, 2, testutil.CollectAndCount(registry, "lending_operation_calls_total"))

	total := 0.0
	for _, metric := range family.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)
}

func Test_MetricsCollector_Records_Durations_In_Seconds(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	// act
	collector.RecordDuration("lending_operation_duration_seconds", 250*time.Millisecond, map[string]string{"operation": "return", "status": "success"})

	// assert
	histogram := gather(t, registry, "lending_operation_duration_seconds").GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), histogram.GetSampleCount())
	assert.InDelta(t, 0.25, histogram.GetSampleSum(), 0.0001)
}

func Test_MetricsCollector_Gauge_Keeps_The_Last_Value(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	// act
	collector.RecordValue("lending_item_available_copies", 3, map[string]string{"item_code": "B1"})
	collector.RecordValue("lending_item_available_copies", 2, map[string]string{"item_code": "B1"})

	// assert
	gauge := gather(t, registry, "lending_item_available_copies").GetMetric()[0]
	assert.Equal(t, 2.0, gauge.GetGauge().GetValue())
	assert.Equal(t, "item_code", gauge.GetLabel()[0].GetName())
	assert.Equal(t, "B1", gauge.GetLabel()[0].GetValue())
}

func Test_MetricsCollector_Drops_Calls_With_Other_Label_Names(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)
	collector.IncrementCounter("lending_database_errors_total", map[string]string{"operation": "issue"})

	// act + assert
	assert.NotPanics(t, func() {
		collector.IncrementCounter("lending_database_errors_total", map[string]string{"error_type": "infrastructure_error"})
	})
	assert.Equal(t, 1, testutil.CollectAndCount(registry, "lending_database_errors_total"))
}

func Test_MetricsCollector_Shares_A_Registry(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	first := promadapters.NewMetricsCollector(registry)
	second := promadapters.NewMetricsCollector(registry)
	labels := map[string]string{"operation": "issue"}

	// act
	first.IncrementCounter("lending_consistency_violations_total", labels)
	second.IncrementCounter("lending_consistency_violations_total", labels)

	// assert
	family := gather(t, registry, "lending_consistency_violations_total")
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, 2.0, family.GetMetric()[0].GetCounter().GetValue())
}
