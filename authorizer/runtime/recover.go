package runtime

import (
	"context"
	"fmt"
	"runtime/debug"

	constant "github.com/LerianStudio/lib-authorizer/authorizer/constants"
	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/LerianStudio/lib-authorizer/authorizer/opentelemetry/metrics"
	"go.opentelemetry.io/otel/attribute"
)

const redactedPanicMsg = "panic recovered (details redacted)"

var panicRecoveredMetric = metrics.Metric{
	Name:        constant.MetricPanicRecoveredTotal,
	Unit:        "1",
	Description: "Total number of recovered panics",
}

// PanicHandler logs recovered panics with their stack and counts them.
// A nil *PanicHandler is valid and does nothing.
type PanicHandler struct {
	logger     log.Logger
	factory    *metrics.MetricsFactory
	production bool
}

// NewPanicHandler builds a handler. In production mode panic values and
// stacks are left out of the log entry.
func NewPanicHandler(logger log.Logger, factory *metrics.MetricsFactory, production bool) *PanicHandler {
	if factory == nil {
		factory = metrics.NewNopFactory()
	}

	return &PanicHandler{logger: log.OrNop(logger), factory: factory, production: production}
}

// Handle processes a value that the caller already recovered.
func (h *PanicHandler) Handle(ctx context.Context, recovered any, component, name string) {
	if h == nil {
		return
	}

	h.log(ctx, recovered, debug.Stack(), name)
	h.record(ctx, component, name)
}

// RecoverAndLog is meant to be deferred; it swallows the panic after handling it.
func (h *PanicHandler) RecoverAndLog(ctx context.Context, component, name string) {
	if r := recover(); r != nil {
		h.Handle(ctx, r, component, name)
	}
}

func (h *PanicHandler) log(ctx context.Context, recovered any, stack []byte, name string) {
	if h.production {
		h.logger.Log(ctx, log.LevelError, redactedPanicMsg, log.String("source", name))
		return
	}

	h.logger.Log(ctx, log.LevelError, "panic recovered",
		log.String("source", name),
		log.String("panic_value", fmt.Sprint(recovered)),
		log.String("stack_trace", string(stack)),
	)
}

func (h *PanicHandler) record(ctx context.Context, component, name string) {
	counter, err := h.factory.Counter(panicRecoveredMetric)
	if err != nil {
		h.logger.Log(ctx, log.LevelWarn, "failed to create panic metric counter", log.Err(err))
		return
	}

	err = counter.WithAttributes(
		attribute.String(constant.AttrComponent, constant.SanitizeMetricLabel(component)),
		attribute.String(constant.AttrGoroutine, constant.SanitizeMetricLabel(name)),
	).AddOne(ctx)
	if err != nil {
		h.logger.Log(ctx, log.LevelWarn, "failed to record panic metric", log.Err(err))
	}
}
