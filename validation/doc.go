// Package validation checks configuration structs.
//
// Struct tags are checked with the validator library; field names in
// messages use the mapstructure key so they match the config file:
//
//	type PipelineConfig struct {
//	    Concurrency int `mapstructure:"concurrency" validate:"gte=0"`
//	}
//	err := validation.Struct(cfg)
//
// Rules that span fields are collected with a Validator:
//
//	v := validation.New()
//	v.Check(cfg.Bucket != "" || cfg.Provider != "s3", "sink.bucket", "is required for s3")
//	err := v.Err()
package validation
