// Package ratelimit throttles API callers with a sliding window. The memory
// limiter serves a single process; the Redis limiter shares windows across
// replicas.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the window state after a check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is in seconds and only set when the request was refused.
	RetryAfter int
}

// Limiter admits at most limit requests per key within window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Policy is the limit applied to every caller.
type Policy struct {
	Limit  int
	Window time.Duration
}

func retryAfter(resetAt, now time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
