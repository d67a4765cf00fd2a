package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit and then refuses", func(t *testing.T) {
		// Arrange
		limiter := NewSlidingWindowLimiter(3, time.Minute)

		// Act & Assert
		for i := 0; i < 3; i++ {
			allowed, err := limiter.Allow(ctx, "key")
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		// Arrange
		limiter := NewSlidingWindowLimiter(1, time.Minute)

		// Act
		first, _ := limiter.Allow(ctx, "alice")
		second, _ := limiter.Allow(ctx, "alice")
		other, _ := limiter.Allow(ctx, "bob")

		// Assert
		assert.True(t, first)
		assert.False(t, second)
		assert.True(t, other)
	})

	t.Run("reset clears the window", func(t *testing.T) {
		// Arrange
		limiter := NewSlidingWindowLimiter(1, time.Minute)
		_, _ = limiter.Allow(ctx, "key")

		// Act
		err := limiter.Reset(ctx, "key")

		// Assert
		require.NoError(t, err)
		allowed, _ := limiter.Allow(ctx, "key")
		assert.True(t, allowed)
	})

	t.Run("old requests fall out of the window", func(t *testing.T) {
		// Arrange
		limiter := NewSlidingWindowLimiter(1, 20*time.Millisecond)
		_, _ = limiter.Allow(ctx, "key")

		// Act
		time.Sleep(30 * time.Millisecond)
		allowed, err := limiter.Allow(ctx, "key")

		// Assert
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestIPAndUserRateLimiters(t *testing.T) {
	ctx := context.Background()

	t.Run("IP limiter keys by address", func(t *testing.T) {
		limiter := NewIPRateLimiter(1)

		allowed, _ := limiter.Allow(ctx, "10.0.0.1")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow(ctx, "10.0.0.1")
		assert.False(t, allowed)
		allowed, _ = limiter.Allow(ctx, "10.0.0.2")
		assert.True(t, allowed)
	})

	t.Run("user limiter keys by user ID", func(t *testing.T) {
		limiter := NewUserRateLimiter(1)

		allowed, _ := limiter.Allow(ctx, "user-1")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow(ctx, "user-1")
		assert.False(t, allowed)
	})
}

func TestDistributedRateLimiter_NilClient(t *testing.T) {
	// Without a DynamoDB client the limiter fails open.
	ctx := context.Background()
	limiter := NewDistributedRateLimiter(nil, "rate-limits", 5, time.Minute, "IP")

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	remaining, window, err := limiter.GetRemaining(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, time.Minute, window)

	assert.NoError(t, limiter.Reset(ctx, "10.0.0.1"))
	assert.Equal(t, 5, limiter.GetLimit())
	assert.Equal(t, time.Minute, limiter.GetWindow())
}
