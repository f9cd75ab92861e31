package storage

import (
	"github.com/kbukum/kravl/errors"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider  = ProviderLocal
	DefaultRoot      = "./out"
	DefaultRegion    = "us-east-1"
	DefaultSeparator = "\n"
)

// Config holds storage configuration.
type Config struct {
	// Provider selects the storage backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider" validate:"omitempty,oneof=local s3"`

	// Root is the output directory for the local provider.
	Root string `mapstructure:"root" json:"root"`

	// AppendMimes lists MIME patterns whose packages are appended to their
	// target instead of replacing it. Patterns may use "type/*".
	AppendMimes []string `mapstructure:"append_mimes" json:"append_mimes"`

	// Separator is written after each appended package.
	Separator string `mapstructure:"separator" json:"separator"`

	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Prefix is prepended to every S3 key.
	Prefix string `mapstructure:"prefix" json:"prefix"`

	// Region is the AWS region for S3.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Separator == "" {
		c.Separator = DefaultSeparator
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.Root == "" {
			return errors.New(errors.CodeInvalidInput, "storage: root is required for local provider")
		}
	case ProviderS3:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New(errors.CodeInvalidInput, "storage: bucket is required for s3 provider"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New(errors.CodeInvalidInput, "storage: region is required for s3 provider"))
		}
		return errors.Join(errs...)
	default:
		return errors.Unsupported("provider", c.Provider)
	}
	return nil
}
