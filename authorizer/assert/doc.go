// Package assert checks internal invariants at runtime.
//
// A failed assertion is not a panic: it returns an *AssertionError, logs the
// failure at error level, counts it in assertion_failed_total and records it
// on the active span, so the caller can turn it into an ordinary error.
package assert
