package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/kravl/pipeline"
)

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 5})
	assert.Equal(t, 5.0, rl.Rate())
	assert.Equal(t, 5, rl.Burst())

	unlimited := NewRateLimiter(RateLimiterConfig{})
	for range 100 {
		assert.True(t, unlimited.Allow())
	}
}

func TestRateLimiter_Spaces(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 50, Burst: 1})
	work := RateLimit[int, int](pipeline.Noop[int](), rl)

	start := time.Now()
	for i := range 4 {
		_, err := work.Call(context.Background(), i)
		require.NoError(t, err)
	}
	// first call uses the burst token, the next three wait ~20ms each
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1})
	require.True(t, rl.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
