// Package runtime turns recovered panics into logs and metrics.
package runtime
