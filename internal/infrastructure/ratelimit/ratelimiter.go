// Package ratelimit throttles account self-registration per client IP.
// Registration is the only endpoint the gate admits without credentials, so
// it gets its own fixed-window limiter in front of the handler.
package ratelimit

import (
	"context"
	"time"
)

// Limiter admits or rejects one event for a key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
