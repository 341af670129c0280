// Package redis stores cards in Redis/Valkey.
//
// Cards are JSON documents under "<prefix>card:<number>" and their numbers
// are indexed in the set "<prefix>cards". Every round-trip goes through a
// circuit breaker so that a dead server fails authorizations fast instead of
// stalling them.
package redis
