package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable wraps gobreaker's open and half-open rejections.
var ErrUnavailable = errors.New("service unavailable (circuit breaker open)")

// Config holds circuit breaker configuration
type Config struct {
	MaxRequests         uint32        // Max requests in half-open state
	Interval            time.Duration // Closed-state window after which counts reset
	Timeout             time.Duration // Time spent open before going half-open
	ConsecutiveFailures uint32        // Consecutive failures to trigger open state
	FailureRatio        float64       // Failure ratio to trigger open (e.g., 0.5 for 50%)
	MinRequests         uint32        // Min requests before checking ratio
}

// State represents circuit breaker state
type State string

const (
	// StateClosed lets every call through.
	StateClosed   State = "closed"
	// StateOpen rejects calls with ErrUnavailable.
	StateOpen     State = "open"
	// StateHalfOpen lets a limited number of trial calls through.
	StateHalfOpen State = "half-open"
	// StateUnknown is reported for states gobreaker adds later.
	StateUnknown  State = "unknown"
)

// Counts represents circuit breaker statistics
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// StateChangeListener is notified when the breaker changes state.
type StateChangeListener func(name string, from, to State)

func convertState(state gobreaker.State) State {
	switch state {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateUnknown
	}
}
