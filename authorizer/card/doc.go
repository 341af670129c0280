// Package card defines the Card record, the Store contract used by the
// ledger and the checks, and an in-memory Store.
package card
