package local

import (
	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/storage"
)

// Config holds local filesystem sink configuration.
type Config struct {
	// Root is the output directory. It is created if absent.
	Root string `mapstructure:"root" json:"root"`

	// AppendMimes lists MIME patterns whose packages are appended to their
	// target file followed by Separator.
	AppendMimes []string `mapstructure:"append_mimes" json:"append_mimes"`

	// Separator is written after each appended package.
	Separator string `mapstructure:"separator" json:"separator"`

	// Append selects packages to append in addition to AppendMimes.
	Append []pack.Matcher `mapstructure:"-" json:"-"`
}

// FromStorage extracts the local settings from a storage Config.
func FromStorage(cfg storage.Config) *Config {
	return &Config{Root: cfg.Root, AppendMimes: cfg.AppendMimes, Separator: cfg.Separator}
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Root == "" {
		c.Root = storage.DefaultRoot
	}
	if c.Separator == "" {
		c.Separator = storage.DefaultSeparator
	}
}

// Validate checks that the local configuration is valid.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New(errors.CodeInvalidInput, "local: root is required")
	}
	return nil
}

// appendMatcher combines AppendMimes and Append.
func (c *Config) appendMatcher() pack.Matcher {
	ms := make([]pack.Matcher, 0, len(c.AppendMimes)+len(c.Append))
	for _, m := range c.AppendMimes {
		ms = append(ms, pack.MatchMimeType(m))
	}
	ms = append(ms, c.Append...)
	return pack.Any(ms...)
}
