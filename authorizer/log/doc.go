// Package log is the logging contract used across the authorizer.
//
// Components depend on Logger only; the zap package provides the production
// backend and NewNop is the default when nothing is configured.
package log
