package circuitbreaker

import (
	"context"
	"errors"
	"fmt"

	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/sony/gobreaker"
)

// Breaker guards calls to one dependency.
type Breaker struct {
	name     string
	breaker  *gobreaker.CircuitBreaker
	logger   log.Logger
	listener StateChangeListener
}

// Option configures a Breaker.
type Option func(*settings)

type settings struct {
	logger     log.Logger
	listener   StateChangeListener
	successful func(err error) bool
}

// WithLogger logs state changes at warn level.
func WithLogger(logger log.Logger) Option {
	return func(s *settings) {
		s.logger = log.OrNop(logger)
	}
}

// WithListener registers a callback for state transitions. It runs
// synchronously and must not call back into the breaker.
func WithListener(listener StateChangeListener) Option {
	return func(s *settings) {
		s.listener = listener
	}
}

// WithSuccessful marks errors that should not count as failures, such as
// lookups of missing keys.
func WithSuccessful(fn func(err error) bool) Option {
	return func(s *settings) {
		s.successful = fn
	}
}

// New creates a breaker named name from cfg. Use DefaultConfig or StoreConfig
// as a starting point.
func New(name string, cfg Config, opts ...Option) *Breaker {
	s := settings{logger: log.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}

	b := &Breaker{name: name, logger: s.logger, listener: s.listener}

	gs := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}

			if counts.Requests == 0 || counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			b.handleStateChange(convertState(from), convertState(to))
		},
	}

	if s.successful != nil {
		gs.IsSuccessful = func(err error) bool { return err == nil || s.successful(err) }
	}

	b.breaker = gobreaker.NewCircuitBreaker(gs)

	return b
}

// Execute runs fn unless the breaker is open. Rejections match ErrUnavailable
// and the underlying gobreaker error.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	result, err := b.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w: %w", b.name, ErrUnavailable, err)
	}

	return result, err
}

// State returns the current state.
func (b *Breaker) State() State {
	return convertState(b.breaker.State())
}

// Counts returns the request counters of the current generation.
func (b *Breaker) Counts() Counts {
	counts := b.breaker.Counts()

	return Counts{
		Requests:             counts.Requests,
		TotalSuccesses:       counts.TotalSuccesses,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}

func (b *Breaker) handleStateChange(from, to State) {
	ctx := context.Background()

	level := log.LevelInfo
	if to == StateOpen {
		level = log.LevelError
	}

	b.logger.Log(ctx, level, "circuit breaker state changed",
		log.String("breaker", b.name), log.String("from", string(from)), log.String("to", string(to)))

	if b.listener != nil {
		b.listener(b.name, from, to)
	}
}
