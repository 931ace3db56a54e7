// Package udderrors defines the sentinel errors shared across the
// packager. Callers should use errors.Is/errors.As to match these.
package udderrors

import "errors"

var (
	// ErrValidation marks a malformed request: missing/empty field or
	// startDate after endDate. Surfaced to the caller before any work starts.
	ErrValidation = errors.New("validation error")

	// ErrNotReady is returned by a poll operation to mean "not yet, try again".
	// It is never returned to a caller outside internal/poller.
	ErrNotReady = errors.New("not ready")

	// ErrTimeout means a poll loop exhausted its retry budget.
	ErrTimeout = errors.New("poll timeout")

	// ErrService wraps any transport or remote-side failure from the
	// TableService HTTP client. ObjectStore errors (S3Store) are not
	// wrapped with it.
	ErrService = errors.New("service error")

	// ErrFatal marks an error during temp-dir creation, archive assembly,
	// upload, or URL generation: it aborts the whole request.
	ErrFatal = errors.New("fatal error")
)
