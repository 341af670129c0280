package metrics

import (
	"context"

	constant "github.com/LerianStudio/lib-authorizer/authorizer/constants"
	"go.opentelemetry.io/otel/attribute"
)

// Outcome values for MetricAuthorizations.
const (
	// OutcomeApproved counts debited transactions.
	OutcomeApproved = "approved"
	// OutcomeDeclined counts transactions refused by a check or a fault.
	OutcomeDeclined = "declined"
	// OutcomeAborted counts transactions cancelled by their caller.
	OutcomeAborted  = "aborted"
)

var (
	MetricAuthorizations = Metric{
		Name:        constant.MetricAuthorizationsTotal,
		Unit:        "1",
		Description: "Transactions processed, by outcome and error code.",
	}

	MetricAuthorizationDuration = Metric{
		Name:        constant.MetricAuthorizationDuration,
		Unit:        "ms",
		Description: "Wall time from request to verdict.",
		Buckets:     DefaultLatencyBuckets,
	}

	MetricCheckFailures = Metric{
		Name:        constant.MetricCheckFailuresTotal,
		Unit:        "1",
		Description: "Validation check failures, by check and error code.",
	}

	MetricReservationsPending = Metric{
		Name:        constant.MetricReservationsPending,
		Unit:        "1",
		Description: "Pending balance reservations per card.",
	}
)

// RecordAuthorization counts one verdict and its processing time.
func (f *MetricsFactory) RecordAuthorization(ctx context.Context, outcome, code string, elapsedMs int64) error {
	labels := []attribute.KeyValue{
		attribute.String(constant.AttrOutcome, outcome),
		attribute.String(constant.AttrCode, constant.SanitizeMetricLabel(code)),
	}

	counter, err := f.Counter(MetricAuthorizations)
	if err != nil {
		return err
	}

	if err := counter.WithAttributes(labels...).AddOne(ctx); err != nil {
		return err
	}

	histogram, err := f.Histogram(MetricAuthorizationDuration)
	if err != nil {
		return err
	}

	return histogram.WithAttributes(labels[0]).Record(ctx, elapsedMs)
}

// RecordCheckFailure counts a failed validation check.
func (f *MetricsFactory) RecordCheckFailure(ctx context.Context, check, code string) error {
	counter, err := f.Counter(MetricCheckFailures)
	if err != nil {
		return err
	}

	return counter.WithAttributes(
		attribute.String(constant.AttrCheck, constant.SanitizeMetricLabel(check)),
		attribute.String(constant.AttrCode, constant.SanitizeMetricLabel(code)),
	).AddOne(ctx)
}

// SetPendingReservations publishes the pending reservation count of a card.
// maskedCard must already be masked.
func (f *MetricsFactory) SetPendingReservations(ctx context.Context, maskedCard string, pending int) error {
	gauge, err := f.Gauge(MetricReservationsPending)
	if err != nil {
		return err
	}

	return gauge.WithAttributes(attribute.String(constant.AttrCard, maskedCard)).Set(ctx, int64(pending))
}
