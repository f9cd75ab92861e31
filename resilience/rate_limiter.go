package resilience

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pipeline"
)

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of calls allowed per second. Zero or less disables
	// limiting.
	Rate float64 `mapstructure:"rate" json:"rate"`
	// Burst is the maximum burst size. Defaults to max(1, Rate).
	Burst int `mapstructure:"burst" json:"burst"`
}

// RateLimiter is a token bucket shared by every call routed through it.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate))
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
}

// Allow reports whether a call may happen now, consuming a token if so.
func (rl *RateLimiter) Allow() bool { return rl.limiter.Allow() }

// Wait blocks until a call is allowed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(err, errors.CodeTimeout, "rate limit wait")
	}
	return nil
}

// Rate returns the configured calls per second.
func (rl *RateLimiter) Rate() float64 { return float64(rl.limiter.Limit()) }

// Burst returns the burst size.
func (rl *RateLimiter) Burst() int { return rl.limiter.Burst() }

// RateLimit wraps work so each call first waits on rl.
func RateLimit[I, O any](work pipeline.Work[I, O], rl *RateLimiter) pipeline.WorkFunc[I, O] {
	return func(ctx context.Context, in I) (O, error) {
		if err := rl.Wait(ctx); err != nil {
			var zero O
			return zero, err
		}
		return work.Call(ctx, in)
	}
}
