// Package util holds small shared helpers.
package util

import "time"

// Backoff is an exponential backoff policy: the delay starts at Initial,
// doubles after each failed attempt, and is capped at Max.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int
}

// Delay returns the wait before retrying after the given 0-based failed
// attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the shift to avoid overflow.
	if attempt > 30 {
		attempt = 30
	}
	d := b.Initial * time.Duration(1<<uint(attempt))
	if d > b.Max || d < b.Initial {
		d = b.Max
	}
	return d
}
