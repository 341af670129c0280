// Package processor authorizes transactions.
//
// ProcessTransaction runs the merchant check and the consumer path in one
// fail-fast task group. The consumer path looks the card up and then runs
// the expiration, PIN and balance checks in a nested group scoped to that
// card. The first failing check cancels everything still running, any
// balance reservation is released, and the failure is reported. When every
// check passes the reserved amount is transferred.
package processor
