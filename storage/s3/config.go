package s3

import (
	"strings"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/storage"
)

// Config holds S3-specific storage configuration.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix" json:"prefix"`

	// Region is the AWS region.
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

// FromStorage extracts the S3 settings from a storage Config.
func FromStorage(cfg storage.Config) *Config {
	return &Config{
		Bucket:         cfg.Bucket,
		Prefix:         cfg.Prefix,
		Region:         cfg.Region,
		Endpoint:       cfg.Endpoint,
		AccessKey:      cfg.AccessKey,
		SecretKey:      cfg.SecretKey,
		ForcePathStyle: cfg.ForcePathStyle,
	}
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = storage.DefaultRegion
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
}

// Validate checks that the S3 configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New(errors.CodeInvalidInput, "s3: bucket is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New(errors.CodeInvalidInput, "s3: region is required"))
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, errors.New(errors.CodeInvalidInput, "s3: access_key and secret_key must be set together"))
	}
	return errors.Join(errs...)
}
