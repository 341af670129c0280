package assert

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	constant "github.com/LerianStudio/lib-authorizer/authorizer/constants"
	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/LerianStudio/lib-authorizer/authorizer/opentelemetry/metrics"
)

// ErrAssertionFailed is the sentinel error for failed assertions.
var ErrAssertionFailed = errors.New("assertion failed")

// AssertionError represents a failed assertion with rich context.
type AssertionError struct {
	Assertion string
	Message   string
	Component string
	Operation string
	Details   string
}

// Error returns the formatted assertion failure message.
func (entry *AssertionError) Error() string {
	if entry == nil {
		return ErrAssertionFailed.Error()
	}

	if entry.Details == "" {
		return "assertion failed: " + entry.Message
	}

	return "assertion failed: " + entry.Message + " (" + entry.Details + ")"
}

// Unwrap returns the sentinel assertion error for errors.Is.
func (entry *AssertionError) Unwrap() error {
	return ErrAssertionFailed
}

var assertionFailedMetric = metrics.Metric{
	Name:        constant.MetricAssertionFailedTotal,
	Unit:        "1",
	Description: "Total number of failed assertions",
}

// Asserter evaluates invariants of one component.
type Asserter struct {
	logger    log.Logger
	factory   *metrics.MetricsFactory
	component string
}

// New creates an Asserter. A nil factory records no metric.
func New(logger log.Logger, factory *metrics.MetricsFactory, component string) *Asserter {
	if factory == nil {
		factory = metrics.NewNopFactory()
	}

	return &Asserter{logger: log.OrNop(logger), factory: factory, component: component}
}

// That returns an error if ok is false. kv holds alternating keys and values.
func (a *Asserter) That(ctx context.Context, ok bool, operation, msg string, kv ...any) error {
	if ok {
		return nil
	}

	return a.fail(ctx, "That", operation, msg, kv...)
}

// Never always returns an error. Use for code paths that should be unreachable.
func (a *Asserter) Never(ctx context.Context, operation, msg string, kv ...any) error {
	return a.fail(ctx, "Never", operation, msg, kv...)
}

const maxValueLength = 200

func truncateValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) <= maxValueLength {
		return s
	}

	return s[:maxValueLength] + "... (truncated " + strconv.Itoa(len(s)-maxValueLength) + " chars)"
}

func formatKeyValues(kv []any) string {
	pairs := make([]string, 0, (len(kv)+1)/2)

	for i := 0; i < len(kv); i += 2 {
		var value any = "MISSING_VALUE"
		if i+1 < len(kv) {
			value = kv[i+1]
		}

		pairs = append(pairs, fmt.Sprintf("%v=%s", kv[i], truncateValue(value)))
	}

	return strings.Join(pairs, " ")
}

func (a *Asserter) fail(ctx context.Context, assertion, operation, msg string, kv ...any) error {
	entry := &AssertionError{
		Assertion: assertion,
		Message:   msg,
		Operation: operation,
		Details:   formatKeyValues(kv),
	}

	if a == nil {
		return entry
	}

	entry.Component = a.component

	a.logger.Log(ctx, log.LevelError, "ASSERTION FAILED: "+msg,
		log.String("assertion", assertion),
		log.String("component", a.component),
		log.String("operation", operation),
		log.String("details", entry.Details),
	)

	a.record(ctx, entry)
	recordToSpan(ctx, entry)

	return entry
}

func (a *Asserter) record(ctx context.Context, entry *AssertionError) {
	counter, err := a.factory.Counter(assertionFailedMetric)
	if err != nil {
		a.logger.Log(ctx, log.LevelWarn, "failed to create assertion metric counter", log.Err(err))
		return
	}

	err = counter.WithAttributes(
		attribute.String(constant.AttrComponent, constant.SanitizeMetricLabel(entry.Component)),
		attribute.String(constant.AttrOperation, constant.SanitizeMetricLabel(entry.Operation)),
		attribute.String(constant.AttrAssertion, constant.SanitizeMetricLabel(entry.Assertion)),
	).AddOne(ctx)
	if err != nil {
		a.logger.Log(ctx, log.LevelWarn, "failed to record assertion metric", log.Err(err))
	}
}

func recordToSpan(ctx context.Context, entry *AssertionError) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.AddEvent(constant.EventAssertionFailed, trace.WithAttributes(
		attribute.String("assertion.name", entry.Assertion),
		attribute.String("assertion.message", entry.Message),
		attribute.String("assertion.component", entry.Component),
		attribute.String("assertion.operation", entry.Operation),
	))
	span.RecordError(entry)
	span.SetStatus(codes.Error, "assertion failed in "+entry.Component+"/"+entry.Operation)
}
