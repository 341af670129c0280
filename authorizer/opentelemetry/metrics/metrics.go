package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MetricsFactory creates OpenTelemetry instruments on first use and reuses
// them afterwards. It is safe for concurrent use.
type MetricsFactory struct {
	meter      metric.Meter
	counters   sync.Map // name -> metric.Int64Counter
	gauges     sync.Map // name -> metric.Int64Gauge
	histograms sync.Map // name+buckets -> metric.Int64Histogram
	logger     log.Logger
}

// ErrNilMeter is returned by NewMetricsFactory when meter is nil.
var ErrNilMeter = errors.New("metric meter cannot be nil")

// Metric describes an instrument.
type Metric struct {
	Name        string
	Description string
	Unit        string
	// Buckets applies to histograms only.
	Buckets []float64
}

// DefaultLatencyBuckets are millisecond boundaries sized around the check latencies.
var DefaultLatencyBuckets = []float64{50, 100, 200, 300, 400, 500, 600, 700, 800, 1000, 1500, 2500, 5000}

// NewMetricsFactory creates a factory that caches instruments by name.
func NewMetricsFactory(meter metric.Meter, logger log.Logger) (*MetricsFactory, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	return &MetricsFactory{meter: meter, logger: log.OrNop(logger)}, nil
}

// NewNopFactory returns a factory whose instruments record nothing.
func NewNopFactory() *MetricsFactory {
	return &MetricsFactory{
		meter:  noop.NewMeterProvider().Meter("nop"),
		logger: log.NewNop(),
	}
}

// Counter returns a builder for the cached counter of m.
func (f *MetricsFactory) Counter(m Metric) (*CounterBuilder, error) {
	counter, err := loadOrCreate(f, &f.counters, m.Name, func() (metric.Int64Counter, error) {
		return f.meter.Int64Counter(m.Name, metric.WithDescription(m.Description), metric.WithUnit(m.Unit))
	})
	if err != nil {
		return nil, err
	}

	return &CounterBuilder{counter: counter}, nil
}

// Gauge returns a builder for the cached gauge of m.
func (f *MetricsFactory) Gauge(m Metric) (*GaugeBuilder, error) {
	gauge, err := loadOrCreate(f, &f.gauges, m.Name, func() (metric.Int64Gauge, error) {
		return f.meter.Int64Gauge(m.Name, metric.WithDescription(m.Description), metric.WithUnit(m.Unit))
	})
	if err != nil {
		return nil, err
	}

	return &GaugeBuilder{gauge: gauge}, nil
}

// Histogram falls back to DefaultLatencyBuckets when m.Buckets is nil.
func (f *MetricsFactory) Histogram(m Metric) (*HistogramBuilder, error) {
	if m.Buckets == nil {
		m.Buckets = DefaultLatencyBuckets
	}

	key := histogramCacheKey(m.Name, m.Buckets)

	histogram, err := loadOrCreate(f, &f.histograms, key, func() (metric.Int64Histogram, error) {
		return f.meter.Int64Histogram(m.Name,
			metric.WithDescription(m.Description),
			metric.WithUnit(m.Unit),
			metric.WithExplicitBucketBoundaries(m.Buckets...),
		)
	})
	if err != nil {
		return nil, err
	}

	return &HistogramBuilder{histogram: histogram}, nil
}

// loadOrCreate returns the cached instrument under key or creates it. When two
// goroutines race, the first stored instrument wins.
func loadOrCreate[T any](f *MetricsFactory, cache *sync.Map, key string, create func() (T, error)) (T, error) {
	var zero T

	if cached, ok := cache.Load(key); ok {
		inst, ok := cached.(T)
		if !ok {
			return zero, fmt.Errorf("instrument cache contains invalid type for %q", key)
		}

		return inst, nil
	}

	inst, err := create()
	if err != nil {
		f.logger.Log(context.Background(), log.LevelError, "failed to create metric instrument",
			log.String("metric_name", key), log.Err(err))

		return zero, fmt.Errorf("create instrument %q: %w", key, err)
	}

	actual, _ := cache.LoadOrStore(key, inst)

	stored, ok := actual.(T)
	if !ok {
		return zero, fmt.Errorf("instrument cache contains invalid type for %q", key)
	}

	return stored, nil
}

// histogramCacheKey keeps histograms with different bucket layouts apart.
func histogramCacheKey(name string, buckets []float64) string {
	if len(buckets) == 0 {
		return name
	}

	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)

	parts := make([]string, len(sorted))
	for i, b := range sorted {
		parts[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}

	return name + ":" + strings.Join(parts, ",")
}
