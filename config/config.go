package config

import (
	"github.com/kbukum/kravl/httpclient"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/observability"
	"github.com/kbukum/kravl/pipeline"
	"github.com/kbukum/kravl/storage"
	"github.com/kbukum/kravl/validation"
)

// Name is the config and env file base name searched by New.
const Name = "kravl"

// PipelineConfig tunes pipeline execution.
type PipelineConfig struct {
	// Concurrency bounds in-flight work items. Zero means DefaultConcurrency.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0,lte=1024"`

	// Buffer sizes channels between background producers and consumers.
	Buffer int `yaml:"buffer" mapstructure:"buffer" validate:"gte=0"`

	// ErrorPolicy is "log", "abort" or "collect".
	ErrorPolicy string `yaml:"error_policy" mapstructure:"error_policy" validate:"omitempty,oneof=log abort collect"`
}

// DefaultConcurrency is used when PipelineConfig.Concurrency is zero.
const DefaultConcurrency = 4

// ApplyDefaults fills in zero-valued fields.
func (c *PipelineConfig) ApplyDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Buffer == 0 {
		c.Buffer = pipeline.DefaultSpawnBuffer
	}
	if c.ErrorPolicy == "" {
		c.ErrorPolicy = pipeline.LogAndContinue.String()
	}
}

// Policy returns the parsed error policy.
func (c *PipelineConfig) Policy() pipeline.ErrorPolicy {
	p, _ := pipeline.ParseErrorPolicy(c.ErrorPolicy)
	return p
}

// Config is the complete kravl configuration.
type Config struct {
	Base      BaseConfig           `yaml:"base" mapstructure:"base"`
	Log       logger.Config        `yaml:"log" mapstructure:"log"`
	Pipeline  PipelineConfig       `yaml:"pipeline" mapstructure:"pipeline"`
	Sink      storage.Config       `yaml:"sink" mapstructure:"sink"`
	HTTP      httpclient.Config    `yaml:"http" mapstructure:"http"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// New loads, defaults and validates the configuration.
func New(opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := Load(Name, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	c.Base.ApplyDefaults()
	if c.Base.Debug && c.Log.Level == "" {
		c.Log.Level = "debug"
	}
	c.Log.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Sink.ApplyDefaults()
	c.HTTP.ApplyDefaults()
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Base.Name
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Base.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks the struct tags of every section, then the rules that
// span fields, and reports every failure at once.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("", validation.Struct(c))
	v.Check(c.Base.validEnvironment(), "base.environment", "must be one of: development staging production")
	v.Merge("sink", c.Sink.Validate())
	v.Merge("http", c.HTTP.Validate())
	return v.Err()
}
