package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
)

// InitMeter installs a global meter provider exporting to cfg.Endpoint
// every cfg.Interval. The provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config, version string, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, errors.External("otlp metric exporter", err)
	}

	res, err := newResource(cfg, version)
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	log.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Setup initializes tracing and metrics when cfg.Enabled is set. The
// returned shutdown flushes and stops both providers; it is a no-op when
// telemetry is disabled.
func Setup(ctx context.Context, cfg Config, version string, log *logger.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	log = log.WithComponent("telemetry")

	tp, err := InitTracer(ctx, cfg, version, log)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg, version, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
