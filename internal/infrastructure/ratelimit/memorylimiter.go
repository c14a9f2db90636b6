package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process fixed-window counter, used when no Redis
// address is configured. Limits are per instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

type memoryBucket struct {
	window int64
	count  int
}

func NewMemoryLimiter() Limiter {
	return &MemoryLimiter{buckets: make(map[string]*memoryBucket)}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	// A misconfigured zero window would divide by zero.
	if window < time.Second {
		window = time.Second
	}
	current := time.Now().Unix() / int64(window.Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok || bucket.window != current {
		bucket = &memoryBucket{window: current}
		l.buckets[key] = bucket
	}
	bucket.count++

	// Stale buckets accumulate one per key; sweep occasionally.
	if len(l.buckets) > 4096 {
		for k, b := range l.buckets {
			if b.window != current {
				delete(l.buckets, k)
			}
		}
	}

	return bucket.count <= limit, nil
}
