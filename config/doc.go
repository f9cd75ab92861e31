// Package config loads kravl configuration.
//
// Values come from a YAML, JSON or TOML file, then from a .env file, then
// from the environment. Environment keys carry the KRAVL_ prefix and use
// underscores for nesting:
//
//	KRAVL_PIPELINE_CONCURRENCY=8
//	KRAVL_SINK_ROOT=./out
//	KRAVL_HTTP_RATE_LIMIT=2
//
// Usage:
//
//	cfg, err := config.New(config.WithConfigFile("kravl.yml"))
package config
