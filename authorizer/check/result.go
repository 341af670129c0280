package check

import (
	"fmt"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

// Result is either Success or Failure.
type Result interface {
	isResult()
}

// Success is a passed check.
type Success struct {
	Message string
}

// Failure is a declined check with its response code.
type Failure struct {
	Code    transaction.ErrorCode
	Message string
}

func (Success) isResult() {}
func (Failure) isResult() {}

// CardResult is either CardSuccess, carrying the stored card, or CardFailure.
type CardResult interface {
	isCardResult()
}

// CardSuccess carries the resolved card.
type CardSuccess struct {
	Card card.Card
}

// CardFailure is a declined card lookup.
type CardFailure struct {
	Code    transaction.ErrorCode
	Message string
}

func (CardSuccess) isCardResult() {}
func (CardFailure) isCardResult() {}

// FailureError carries a Failure out of a task so the task group can fail fast on it.
type FailureError struct {
	Check   string
	Failure Failure
}

// Error returns the failure message.
func (e *FailureError) Error() string {
	return e.Failure.Message
}

// Err converts a check outcome into a task error: nil for Success, a
// *FailureError for Failure, and err unchanged when the check returned one.
func Err(name string, r Result, err error) error {
	if err != nil {
		return err
	}

	switch v := r.(type) {
	case Success:
		return nil
	case Failure:
		return &FailureError{Check: name, Failure: v}
	default:
		return fmt.Errorf("check %s: unexpected result %T", name, r)
	}
}
