// Package backoff provides context-aware sleeping and retry delays.
package backoff
