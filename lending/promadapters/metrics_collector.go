// Package promadapters provides a Prometheus implementation of lending.MetricsCollector.
package promadapters

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// MetricsCollector maps the lending metrics onto Prometheus vectors:
//   - RecordDuration -> HistogramVec in seconds
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
//
// A vector is created and registered the first time a metric name is seen. Its label names are
// the label keys of that first call; later calls with other label keys are dropped.
type MetricsCollector struct {
	registerer prometheus.Registerer
	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewMetricsCollector creates a collector that registers its vectors with registerer.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		registerer: registerer,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	vec, ok := m.histograms[metric]
	if !ok {
		vec = registerOrReuse(m.registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metric,
			Help:    help(metric),
			Buckets: prometheus.DefBuckets,
		}, labelNames(labels)))
		m.histograms[metric] = vec
	}
	m.mu.Unlock()

	if observer, err := vec.GetMetricWith(labels); err == nil {
		observer.Observe(duration.Seconds())
	}
}

func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	m.mu.Lock()
	vec, ok := m.counters[metric]
	if !ok {
		vec = registerOrReuse(m.registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metric,
			Help: help(metric),
		}, labelNames(labels)))
		m.counters[metric] = vec
	}
	m.mu.Unlock()

	if counter, err := vec.GetMetricWith(labels); err == nil {
		counter.Inc()
	}
}

func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	vec, ok := m.gauges[metric]
	if !ok {
		vec = registerOrReuse(m.registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metric,
			Help: help(metric),
		}, labelNames(labels)))
		m.gauges[metric] = vec
	}
	m.mu.Unlock()

	if gauge, err := vec.GetMetricWith(labels); err == nil {
		gauge.Set(value)
	}
}

// registerOrReuse registers c, or returns the identical collector that is already registered.
func registerOrReuse[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	if err := registerer.Register(c); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			if existing, ok := alreadyRegistered.ExistingCollector.(C); ok {
				return existing
			}
		}
	}

	return c
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func help(metric string) string {
	return "Lending metric " + strings.ReplaceAll(metric, "_", " ")
}

var _ lending.MetricsCollector = (*MetricsCollector)(nil)
