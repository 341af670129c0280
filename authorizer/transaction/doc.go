// Package transaction holds the authorization request and result types and
// the coded domain errors shared by the checks, the ledger and the processor.
package transaction
