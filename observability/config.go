package observability

import (
	"time"

	"github.com/kbukum/kravl/validation"
)

const (
	defaultServiceName = "kravl"
	defaultEndpoint    = "localhost:4318"
	defaultInterval    = 15 * time.Second
)

// Config configures trace and metric export.
type Config struct {
	// Enabled turns on OTLP export. Instruments record into no-op
	// providers when it is off.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// ServiceName is reported as service.name.
	ServiceName string `mapstructure:"service_name" json:"service_name"`

	// Environment is reported as deployment environment.
	Environment string `mapstructure:"environment" json:"environment"`

	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint string `mapstructure:"endpoint" json:"endpoint" validate:"omitempty,hostname_port"`

	// Insecure disables TLS to the collector.
	Insecure bool `mapstructure:"insecure" json:"insecure"`

	// SampleRate is the fraction of traces kept. Zero means 1.
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`

	// Interval is the metric export period.
	Interval time.Duration `mapstructure:"interval" json:"interval" validate:"gte=0"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	return validation.Struct(c)
}
