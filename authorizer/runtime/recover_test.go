//go:build unit

package runtime

import (
	"context"
	"sync"
	"testing"

	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/LerianStudio/lib-authorizer/authorizer/opentelemetry/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type testLogger struct {
	log.NopLogger
	mu     sync.Mutex
	msgs   []string
	fields [][]log.Field
}

func (l *testLogger) Log(_ context.Context, _ log.Level, msg string, fields ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.msgs = append(l.msgs, msg)
	l.fields = append(l.fields, fields)
}

func fieldValue(fields []log.Field, key string) any {
	for _, f := range fields {
		if f.Key == key {
			return f.Value
		}
	}

	return nil
}

func TestNilHandlerIsSafe(t *testing.T) {
	t.Parallel()

	var h *PanicHandler

	require.NotPanics(t, func() {
		h.Handle(context.Background(), "boom", "test", "nil")

		func() {
			defer h.RecoverAndLog(context.Background(), "test", "nil")

			panic("swallowed")
		}()
	})
}

func TestHandleLogsValueAndStack(t *testing.T) {
	t.Parallel()

	logger := &testLogger{}
	h := NewPanicHandler(logger, nil, false)

	h.Handle(context.Background(), "card store exploded", "check", "card_lookup")

	require.Len(t, logger.msgs, 1)
	assert.Equal(t, "panic recovered", logger.msgs[0])
	assert.Equal(t, "card store exploded", fieldValue(logger.fields[0], "panic_value"))
	assert.Equal(t, "card_lookup", fieldValue(logger.fields[0], "source"))
	assert.NotEmpty(t, fieldValue(logger.fields[0], "stack_trace"))
}

func TestHandleRedactsInProduction(t *testing.T) {
	t.Parallel()

	logger := &testLogger{}
	h := NewPanicHandler(logger, nil, true)

	h.Handle(context.Background(), "pin=1234", "check", "pin")

	require.Len(t, logger.msgs, 1)
	assert.Equal(t, redactedPanicMsg, logger.msgs[0])
	assert.Nil(t, fieldValue(logger.fields[0], "panic_value"))
}

func TestRecoverAndLogSwallowsPanic(t *testing.T) {
	t.Parallel()

	logger := &testLogger{}
	h := NewPanicHandler(logger, nil, false)

	require.NotPanics(t, func() {
		defer h.RecoverAndLog(context.Background(), "ledger", "seed")

		panic(42)
	})

	require.Len(t, logger.msgs, 1)
	assert.Equal(t, "42", fieldValue(logger.fields[0], "panic_value"))
}

func TestHandleCountsPanics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	factory, err := metrics.NewMetricsFactory(mp.Meter("test"), nil)
	require.NoError(t, err)

	h := NewPanicHandler(nil, factory, true)
	h.Handle(context.Background(), "x", "taskgroup", "merchant")
	h.Handle(context.Background(), "y", "taskgroup", "merchant")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != panicRecoveredMetric.Name {
				continue
			}

			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}

	assert.Equal(t, int64(2), total)
}
