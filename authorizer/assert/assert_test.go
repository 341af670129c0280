//go:build unit

package assert

import (
	"context"
	"strings"
	"testing"

	testifyassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	constant "github.com/LerianStudio/lib-authorizer/authorizer/constants"
	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/LerianStudio/lib-authorizer/authorizer/opentelemetry/metrics"
)

type capturedEntry struct {
	level log.Level
	msg   string
}

type captureLogger struct {
	entries []capturedEntry
}

func (c *captureLogger) Log(_ context.Context, level log.Level, msg string, _ ...log.Field) {
	c.entries = append(c.entries, capturedEntry{level: level, msg: msg})
}
func (c *captureLogger) With(_ ...log.Field) log.Logger { return c }
func (c *captureLogger) WithGroup(_ string) log.Logger  { return c }
func (c *captureLogger) Enabled(_ log.Level) bool       { return true }
func (c *captureLogger) Sync(_ context.Context) error   { return nil }

func TestThatPasses(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}
	a := New(logger, nil, "ledger")

	testifyassert.NoError(t, a.That(context.Background(), true, "reserve", "never shown"))
	testifyassert.Empty(t, logger.entries)
}

func TestThatFails(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	factory, err := metrics.NewMetricsFactory(mp.Meter("assert-test"), log.NewNop())
	require.NoError(t, err)

	logger := &captureLogger{}
	a := New(logger, factory, "ledger")

	err = a.That(context.Background(), false, "reserve", "pending exceeds balance", "pending", "600", "balance", "500")
	require.ErrorIs(t, err, ErrAssertionFailed)

	var entry *AssertionError
	require.ErrorAs(t, err, &entry)
	testifyassert.Equal(t, "That", entry.Assertion)
	testifyassert.Equal(t, "ledger", entry.Component)
	testifyassert.Equal(t, "pending=600 balance=500", entry.Details)
	testifyassert.Contains(t, err.Error(), "pending exceeds balance")

	require.Len(t, logger.entries, 1)
	testifyassert.Equal(t, log.LevelError, logger.entries[0].level)
	testifyassert.True(t, strings.HasPrefix(logger.entries[0].msg, "ASSERTION FAILED"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == constant.MetricAssertionFailedTotal {
				for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
					total += dp.Value
				}
			}
		}
	}

	testifyassert.Equal(t, int64(1), total)
}

func TestNeverAndOddKeyValues(t *testing.T) {
	t.Parallel()

	err := New(nil, nil, "processor").Never(context.Background(), "consume", "unexpected result", "type")

	var entry *AssertionError
	require.ErrorAs(t, err, &entry)
	testifyassert.Equal(t, "Never", entry.Assertion)
	testifyassert.Equal(t, "type=MISSING_VALUE", entry.Details)
}

func TestNilAsserterStillFails(t *testing.T) {
	t.Parallel()

	var a *Asserter

	err := a.That(context.Background(), false, "op", "broken")
	testifyassert.ErrorIs(t, err, ErrAssertionFailed)

	var entry *AssertionError
	testifyassert.Equal(t, ErrAssertionFailed.Error(), entry.Error())
}

func TestTruncateValue(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxValueLength+10)

	testifyassert.Equal(t, "short", truncateValue("short"))
	testifyassert.Contains(t, truncateValue(long), "truncated 10 chars")
}
