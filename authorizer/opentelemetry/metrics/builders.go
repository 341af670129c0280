package metrics

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Errors returned when recording on a builder without an instrument.
var (
	ErrNilCounter   = errors.New("counter instrument is nil")
	ErrNilGauge     = errors.New("gauge instrument is nil")
	ErrNilHistogram = errors.New("histogram instrument is nil")
)

// attrs is an immutable attribute list; every With call copies.
type attrs []attribute.KeyValue

func (a attrs) with(kv ...attribute.KeyValue) attrs {
	out := make(attrs, 0, len(a)+len(kv))
	out = append(out, a...)

	return append(out, kv...)
}

// CounterBuilder records increments with a fixed attribute set.
type CounterBuilder struct {
	counter metric.Int64Counter
	attrs   attrs
}

// WithAttributes returns a copy of the builder with kv added.
func (c *CounterBuilder) WithAttributes(kv ...attribute.KeyValue) *CounterBuilder {
	return &CounterBuilder{counter: c.counter, attrs: c.attrs.with(kv...)}
}

// Add increments the counter by value.
func (c *CounterBuilder) Add(ctx context.Context, value int64) error {
	if c.counter == nil {
		return ErrNilCounter
	}

	c.counter.Add(ctx, value, metric.WithAttributes(c.attrs...))

	return nil
}

// AddOne increments the counter by one.
func (c *CounterBuilder) AddOne(ctx context.Context) error {
	return c.Add(ctx, 1)
}

// GaugeBuilder records instantaneous values with a fixed attribute set.
type GaugeBuilder struct {
	gauge metric.Int64Gauge
	attrs attrs
}

// WithAttributes returns a copy of the builder with kv added.
func (g *GaugeBuilder) WithAttributes(kv ...attribute.KeyValue) *GaugeBuilder {
	return &GaugeBuilder{gauge: g.gauge, attrs: g.attrs.with(kv...)}
}

// Set records value as the current gauge value.
func (g *GaugeBuilder) Set(ctx context.Context, value int64) error {
	if g.gauge == nil {
		return ErrNilGauge
	}

	g.gauge.Record(ctx, value, metric.WithAttributes(g.attrs...))

	return nil
}

// HistogramBuilder records distributions with a fixed attribute set.
type HistogramBuilder struct {
	histogram metric.Int64Histogram
	attrs     attrs
}

// WithAttributes returns a copy of the builder with kv added.
func (h *HistogramBuilder) WithAttributes(kv ...attribute.KeyValue) *HistogramBuilder {
	return &HistogramBuilder{histogram: h.histogram, attrs: h.attrs.with(kv...)}
}

// Record adds value to the histogram.
func (h *HistogramBuilder) Record(ctx context.Context, value int64) error {
	if h.histogram == nil {
		return ErrNilHistogram
	}

	h.histogram.Record(ctx, value, metric.WithAttributes(h.attrs...))

	return nil
}
