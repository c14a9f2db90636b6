package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	t.Run("admits up to the limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := limiter.Allow(ctx, "ip-1", 3, time.Hour)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(ctx, "ip-1", 3, time.Hour)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		allowed, err := limiter.Allow(ctx, "ip-2", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("a zero window is floored, not a division by zero", func(t *testing.T) {
		allowed, err := limiter.Allow(ctx, "ip-3", 1, 0)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.Allow(ctx, "ip-3", 1, 0)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
