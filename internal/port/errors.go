package port

import "errors"

// Sentinel errors used across ports.
var (
	// ErrRateLimited marks a transient quota rejection from a provider.
	// Callers may retry with backoff; any other provider error must not
	// be retried.
	ErrRateLimited = errors.New("provider rate limited")

	ErrDocumentNotFound = errors.New("document not found")
)
