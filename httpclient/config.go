package httpclient

import (
	"time"

	"github.com/kbukum/kravl/errors"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "kravl"
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// Timeout bounds a whole request including reading the body. Defaults to 30s.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// UserAgent is sent with every request unless a request overrides it.
	UserAgent string `mapstructure:"user_agent" json:"user_agent"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `mapstructure:"headers" json:"headers"`

	// RateLimit is the maximum number of requests per second. Zero disables it.
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit" validate:"gte=0"`

	// Burst is the rate limiter bucket size.
	Burst int `mapstructure:"burst" json:"burst" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.New(errors.CodeInvalidInput, "httpclient: timeout must be positive")
	}
	if c.RateLimit < 0 || c.Burst < 0 {
		return errors.New(errors.CodeInvalidInput, "httpclient: rate limit and burst must not be negative")
	}
	return nil
}
