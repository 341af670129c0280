package processor

import "github.com/LerianStudio/lib-authorizer/authorizer/transaction"

// State is a step of one authorization.
type State uint8

const (
	// StateInit is the first state of every authorization.
	StateInit State = iota + 1
	// StateMerchantRunning means the merchant check was forked.
	StateMerchantRunning
	// StateConsumerRunning means the card subtree was forked.
	StateConsumerRunning
	// StateCancelling is entered on the first failure.
	StateCancelling
	// StateFailed is terminal: the transaction was declined or aborted.
	StateFailed
	// StateCommitting means every check passed and the transfer runs.
	StateCommitting
	// StateSucceeded is terminal: the card was debited.
	StateSucceeded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateMerchantRunning:
		return "merchant_running"
	case StateConsumerRunning:
		return "consumer_running"
	case StateCancelling:
		return "cancelling"
	case StateFailed:
		return "failed"
	case StateCommitting:
		return "committing"
	case StateSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends an authorization.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateSucceeded
}

// StateObserver receives every transition of an authorization, in order.
// Calls for one request never overlap.
type StateObserver func(req transaction.Request, state State)
