package processor

import (
	"time"

	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/LerianStudio/lib-authorizer/authorizer/opentelemetry/metrics"
	"github.com/LerianStudio/lib-authorizer/authorizer/runtime"
)

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger log.Logger) Option {
	return func(p *Processor) {
		p.logger = log.OrNop(logger)
	}
}

// WithMetrics records authorization metrics through factory.
func WithMetrics(factory *metrics.MetricsFactory) Option {
	return func(p *Processor) {
		if factory != nil {
			p.metrics = factory
		}
	}
}

// WithClock replaces time.Now for timestamps and elapsed times.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPanicHandler reports panics raised inside checks.
func WithPanicHandler(h *runtime.PanicHandler) Option {
	return func(p *Processor) {
		p.panics = h
	}
}

// WithStateObserver receives every state transition. Panics raised by the
// observer are recovered and logged.
func WithStateObserver(observer StateObserver) Option {
	return func(p *Processor) {
		p.observer = observer
	}
}

// WithProduction hides infrastructure error details from logs.
func WithProduction(production bool) Option {
	return func(p *Processor) {
		p.production = production
	}
}
