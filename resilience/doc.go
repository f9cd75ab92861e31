// Package resilience throttles pipeline work with a shared token bucket.
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 5, Burst: 5})
//	limited := resilience.RateLimit(client.Fetch(), rl)
//
// Every call is attempted once; failures are reported, never repeated.
package resilience
