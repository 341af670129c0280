// Package circuitbreaker wraps sony/gobreaker for calls to the card store.
//
// A Breaker opens after a run of consecutive failures (or a failure ratio
// over a minimum number of requests) and fast-fails with ErrUnavailable
// until its timeout lets a few trial calls through.
package circuitbreaker
