// Package metrics wraps an OpenTelemetry meter with cached instruments and
// builder-style recording, plus the authorizer's own metric set.
package metrics
