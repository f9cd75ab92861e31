// Package observability wires OpenTelemetry tracing and metrics into
// pipelines.
//
// Setup installs OTLP/HTTP exporters as the global providers when
// telemetry is enabled:
//
//	shutdown, err := observability.Setup(ctx, cfg.Telemetry, version.Short(), log)
//	defer shutdown(context.Background())
//
// Instrument decorates a work stage with a span per call and the
// stage.calls, stage.errors and stage.duration instruments:
//
//	inst := observability.Global()
//	decode := observability.Instrument(inst, "decode", imaging.Decode())
package observability
