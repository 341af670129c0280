// Package zap is the production log.Logger backend for the authorizer.
//
// Entries are JSON encoded, carry the OpenTelemetry trace and span ids of the
// calling context, and are teed into the otelzap bridge.
package zap
