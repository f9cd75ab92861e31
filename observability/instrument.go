package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pipeline"
)

// Attribute keys recorded on stage spans and metrics.
const (
	AttrStage = "stage"
	AttrCode  = "error.code"
	AttrUnit  = "unit"
)

// Instrumentation holds the tracer and instruments shared by instrumented
// stages.
type Instrumentation struct {
	tracer trace.Tracer

	calls    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram

	unitItems    metric.Int64Counter
	unitFailures metric.Int64Counter
	unitDuration metric.Float64Histogram
}

// NewInstrumentation creates instruments on the given providers.
func NewInstrumentation(tp trace.TracerProvider, mp metric.MeterProvider) (*Instrumentation, error) {
	meter := mp.Meter(instrumentationName)
	in := &Instrumentation{tracer: tp.Tracer(instrumentationName)}

	var err error
	if in.calls, err = meter.Int64Counter("stage.calls",
		metric.WithDescription("Work stage invocations")); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create stage.calls")
	}
	if in.failures, err = meter.Int64Counter("stage.errors",
		metric.WithDescription("Failed work stage invocations")); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create stage.errors")
	}
	if in.duration, err = meter.Float64Histogram("stage.duration",
		metric.WithDescription("Work stage latency"),
		metric.WithUnit("s")); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create stage.duration")
	}
	if in.unitItems, err = meter.Int64Counter("unit.items",
		metric.WithDescription("Items delivered by a unit run")); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create unit.items")
	}
	if in.unitFailures, err = meter.Int64Counter("unit.failures",
		metric.WithDescription("Items failed in a unit run")); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create unit.failures")
	}
	if in.unitDuration, err = meter.Float64Histogram("unit.duration",
		metric.WithDescription("Unit run duration"),
		metric.WithUnit("s")); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create unit.duration")
	}
	return in, nil
}

// Global returns instrumentation bound to the global providers. Creating
// instruments on the global providers does not fail in practice; if it
// does, the error is handed to otel.Handle and nil is returned, which
// Instrument treats as disabled.
func Global() *Instrumentation {
	in, err := NewInstrumentation(otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		otel.Handle(err)
		return nil
	}
	return in
}

// Instrument wraps work so each call runs in a span named after stage and
// is counted and timed. Failures are recorded on the span and counted by
// error code. A nil Instrumentation returns work unchanged.
func Instrument[I, O any](in *Instrumentation, stage string, work pipeline.Work[I, O]) pipeline.WorkFunc[I, O] {
	if in == nil {
		return work.Call
	}
	stageAttr := attribute.String(AttrStage, stage)
	attrs := metric.WithAttributes(stageAttr)

	return pipeline.Wrap(work, func(ctx context.Context, item I, next pipeline.Work[I, O]) (O, error) {
		ctx, span := in.tracer.Start(ctx, stage, trace.WithAttributes(stageAttr))
		defer span.End()

		start := time.Now()
		out, err := next.Call(ctx, item)
		in.calls.Add(ctx, 1, attrs)
		in.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			code := string(errors.CodeOf(err))
			in.failures.Add(ctx, 1, metric.WithAttributes(stageAttr, attribute.String(AttrCode, code)))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return out, err
	})
}

// RecordUnit records the summary of a finished unit run.
func (in *Instrumentation) RecordUnit(ctx context.Context, unit string, stats pipeline.Stats) {
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrUnit, unit))
	in.unitItems.Add(ctx, stats.Items, attrs)
	in.unitFailures.Add(ctx, stats.Failures, attrs)
	in.unitDuration.Record(ctx, stats.Duration.Seconds(), attrs)
}
