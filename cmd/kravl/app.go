package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/kravl/config"
	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/httpclient"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/observability"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
	"github.com/kbukum/kravl/storage"
	"github.com/kbukum/kravl/storage/local"
	_ "github.com/kbukum/kravl/storage/s3"
	"github.com/kbukum/kravl/version"
)

// app carries what every command needs once flags are parsed.
type app struct {
	flags *globalFlags

	cfg      *config.Config
	log      *logger.Logger
	runID    string
	inst     *observability.Instrumentation
	shutdown func(context.Context) error
}

func (a *app) setup(ctx context.Context) error {
	cfg := &config.Config{}
	var opts []config.LoaderOption
	if a.flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.flags.configFile))
	}
	if a.flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.flags.envFile))
	}
	if err := config.Load(config.Name, cfg, opts...); err != nil {
		return err
	}
	a.override(cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.runID = uuid.NewString()
	a.log = logger.New(&cfg.Log, cfg.Base.Name).WithRun(a.runID)
	logger.SetGlobalLogger(a.log)

	shutdown, err := observability.Setup(ctx, cfg.Telemetry, version.Short(), a.log)
	if err != nil {
		return err
	}
	a.shutdown = shutdown
	a.inst = observability.Global()

	a.log.Debug("configured", logger.Fields(
		"environment", cfg.Base.Environment,
		"sink", cfg.Sink.Provider,
		"concurrency", cfg.Pipeline.Concurrency,
		"error_policy", cfg.Pipeline.ErrorPolicy,
	))
	return nil
}

// override applies command-line flags on top of loaded configuration.
func (a *app) override(cfg *config.Config) {
	f := a.flags
	if f.out != "" {
		cfg.Sink.Provider = storage.ProviderLocal
		cfg.Sink.Root = f.out
	}
	if f.concurrency > 0 {
		cfg.Pipeline.Concurrency = f.concurrency
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = version.UserAgent()
	}
	if f.policy != "" {
		cfg.Pipeline.ErrorPolicy = f.policy
	}
	switch {
	case f.verbose >= 2:
		cfg.Log.Level = "trace"
	case f.verbose == 1:
		cfg.Log.Level = "debug"
	}
}

func (a *app) close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return a.shutdown(ctx)
}

// sink returns the configured destination. The local provider writes
// through the exclusive file writer so appends from concurrent stages
// never interleave.
func (a *app) sink() (pipeline.Dest[*pack.Package], error) {
	if a.cfg.Sink.Provider == storage.ProviderLocal {
		w, err := local.NewWriter(local.FromStorage(a.cfg.Sink), a.log)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	st, err := storage.New(a.cfg.Sink, a.log)
	if err != nil {
		return nil, err
	}
	return storage.Dest(st, a.log), nil
}

func (a *app) httpClient() (*httpclient.Client, error) {
	return httpclient.New(a.cfg.HTTP, a.log)
}

// drive runs src into the sink under the configured error policy and
// records the run.
func (a *app) drive(ctx context.Context, name string, src pipeline.Source[*pack.Package]) error {
	dest, err := a.sink()
	if err != nil {
		return err
	}
	unit := pipeline.Drive(src, dest,
		pipeline.WithName(name),
		pipeline.WithRunID(a.runID),
		pipeline.WithLogger(a.log.WithComponent("pipeline")),
		pipeline.WithErrorPolicy(a.cfg.Pipeline.Policy()),
	)
	err = unit.Run(ctx)
	a.inst.RecordUnit(ctx, name, unit.Stats())

	stats := unit.Stats()
	if stats.Failures > 0 && err == nil && a.cfg.Pipeline.Policy() == pipeline.LogAndContinue {
		a.log.Warn("some items failed", logger.Fields(logger.FieldUnit, name, logger.FieldFailures, stats.Failures))
	}
	if errors.Is(err, context.Canceled) {
		a.log.Info("interrupted", logger.Fields(logger.FieldUnit, name, logger.FieldCount, stats.Items))
		return nil
	}
	return err
}

// concurrency is the configured bound on in-flight items.
func (a *app) concurrency() int {
	return a.cfg.Pipeline.Concurrency
}
