// Package check implements the validation rules run before a transaction is
// committed.
//
// Every check waits a simulated external-call latency first and stops as
// soon as its context is cancelled. A business rejection is a Failure value;
// a returned error means the check did not reach a verdict, either because
// it was cancelled or because a dependency broke.
package check
