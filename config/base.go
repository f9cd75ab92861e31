package config

import "slices"

var environments = []string{"development", "staging", "production"}

// BaseConfig identifies the running instance.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults applies default values to base configuration.
func (c *BaseConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "kravl"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// IsProduction reports whether the environment is production.
func (c *BaseConfig) IsProduction() bool {
	return c.Environment == "production"
}

func (c *BaseConfig) validEnvironment() bool {
	return slices.Contains(environments, c.Environment)
}
