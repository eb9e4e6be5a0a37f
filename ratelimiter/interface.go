// Package ratelimiter provides per-adapter request limiters for the cascade.
// An adapter whose limiter denies a request is skipped for that request.
package ratelimiter

import "time"

// Limiter defines the interface for request limiters.
// Implementations can be local (in-memory) or distributed (Redis, etc.).
type Limiter interface {
	// TryAcquire atomically takes one request slot if one is available.
	TryAcquire() bool

	// TimeUntilAvailable returns how long until a slot frees up (read-only).
	TimeUntilAvailable() time.Duration
}
