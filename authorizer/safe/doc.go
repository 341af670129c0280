// Package safe compiles user-supplied patterns without panicking and caches them.
package safe
