// Package ledger holds balance reservations for in-flight transactions.
//
// A reservation is placed by Validate once the available balance
// (stored balance minus pending reservations) covers the amount, and is
// either consumed by Transfer or dropped by Release. Every mutation of a card
// happens under that card's own mutex, so checks on different cards never
// contend.
package ledger
