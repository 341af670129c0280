package constant

// MaxMetricLabelLength bounds label values to keep metric cardinality in check.
const MaxMetricLabelLength = 64

// Metric names.
const (
	MetricPanicRecoveredTotal   = "panic_recovered_total"
	MetricAuthorizationsTotal   = "authorizer_transactions_total"
	MetricAuthorizationDuration = "authorizer_transaction_duration_ms"
	MetricCheckFailuresTotal    = "authorizer_check_failures_total"
	MetricReservationsPending   = "authorizer_reservations_pending"
	MetricAssertionFailedTotal  = "assertion_failed_total"
)

// Metric attribute keys.
const (
	AttrOutcome   = "outcome"
	AttrCode      = "code"
	AttrCheck     = "check"
	AttrCard      = "card"
	AttrComponent = "component"
	AttrGoroutine = "goroutine_name"
	AttrDBSystem  = "db.system"
	AttrAssertion = "assertion"
	AttrOperation = "operation"
)

// EventAssertionFailed is the span event recorded for failed assertions.
const EventAssertionFailed = "assertion.failed"

// DBSystemRedis is the db.system value of Redis spans.
const DBSystemRedis = "redis"

// SanitizeMetricLabel truncates value to MaxMetricLabelLength.
func SanitizeMetricLabel(value string) string {
	if len(value) > MaxMetricLabelLength {
		return value[:MaxMetricLabelLength]
	}

	return value
}
