package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
)

// Dest consumes one item. Dests driven by concurrent units must be safe for
// concurrent use.
type Dest[T any] interface {
	Call(ctx context.Context, item T) error
}

// DestFunc adapts a function to Dest.
type DestFunc[T any] func(ctx context.Context, item T) error

// Call calls f(ctx, item).
func (f DestFunc[T]) Call(ctx context.Context, item T) error { return f(ctx, item) }

// Discard is a Dest that drops every item.
func Discard[T any]() DestFunc[T] {
	return func(context.Context, T) error { return nil }
}

// Consume turns a Work into a Dest by ignoring its output.
func Consume[T, O any](work Work[T, O]) DestFunc[T] {
	return func(ctx context.Context, item T) error {
		_, err := work.Call(ctx, item)
		return err
	}
}

// Unit is a runnable pipeline.
type Unit interface {
	Run(ctx context.Context) error
}

// UnitFunc adapts a function to Unit.
type UnitFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f UnitFunc) Run(ctx context.Context) error { return f(ctx) }

// Join runs all units concurrently and returns once every one of them has
// finished. The returned error joins the failures of all units.
func Join(units ...Unit) UnitFunc {
	return func(ctx context.Context) error {
		var g errgroup.Group
		errs := make([]error, len(units))
		for i, u := range units {
			g.Go(func() error {
				errs[i] = u.Run(ctx)
				return nil
			})
		}
		_ = g.Wait()
		return errors.Join(errs...)
	}
}

// ErrorPolicy decides what a SourceUnit does with failed items.
type ErrorPolicy int

const (
	// LogAndContinue logs each failure and keeps going. Run returns nil.
	LogAndContinue ErrorPolicy = iota
	// Abort stops at the first failure and returns it.
	Abort
	// CollectErrors keeps going and returns all failures joined.
	CollectErrors
)

// String returns the policy name used in configuration.
func (p ErrorPolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case CollectErrors:
		return "collect"
	default:
		return "log"
	}
}

// ParseErrorPolicy parses "log", "abort" or "collect".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "log":
		return LogAndContinue, nil
	case "abort":
		return Abort, nil
	case "collect":
		return CollectErrors, nil
	default:
		return LogAndContinue, errors.Newf(errors.CodeInvalidInput, "unknown error policy %q", s)
	}
}

// Stats summarizes the last run of a SourceUnit.
type Stats struct {
	RunID    string
	Items    int64
	Failures int64
	Duration time.Duration
}

// UnitOption configures a SourceUnit.
type UnitOption func(*unitOptions)

type unitOptions struct {
	policy ErrorPolicy
	log    *logger.Logger
	name   string
	runID  string
}

// WithErrorPolicy sets how failed items are handled.
func WithErrorPolicy(p ErrorPolicy) UnitOption {
	return func(o *unitOptions) { o.policy = p }
}

// WithLogger sets the logger used for failures and the run summary.
func WithLogger(l *logger.Logger) UnitOption {
	return func(o *unitOptions) { o.log = l }
}

// WithName names the unit in log records.
func WithName(name string) UnitOption {
	return func(o *unitOptions) { o.name = name }
}

// WithRunID fixes the run id instead of generating one per run.
func WithRunID(id string) UnitOption {
	return func(o *unitOptions) { o.runID = id }
}

// SourceUnit pulls every item from a source and hands successful items to a dest.
type SourceUnit[T any] struct {
	source Source[T]
	dest   Dest[T]
	opts   unitOptions

	last atomic.Pointer[Stats]
}

// Drive binds src to dest.
func Drive[T any](src Source[T], dest Dest[T], opts ...UnitOption) *SourceUnit[T] {
	o := unitOptions{name: "unit"}
	for _, opt := range opts {
		opt(&o)
	}
	return &SourceUnit[T]{source: src, dest: dest, opts: o}
}

// Run drives the source until it is exhausted or ctx is done.
func (u *SourceUnit[T]) Run(ctx context.Context) error {
	runID := u.opts.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := u.opts.log
	if log == nil {
		log = logger.WithComponent("pipeline")
	}
	log = log.WithRun(runID).WithFields(logger.Fields(logger.FieldUnit, u.opts.name))

	var items, failures int64
	start := time.Now()
	defer func() {
		stats := Stats{
			RunID:    runID,
			Items:    items,
			Failures: failures,
			Duration: time.Since(start),
		}
		u.last.Store(&stats)
		log.Info("unit finished", logger.Fields(
			logger.FieldCount, stats.Items,
			logger.FieldFailures, stats.Failures,
			logger.FieldDuration, stats.Duration.Milliseconds(),
		))
	}()

	iter := u.source.Iter(ctx)
	defer iter.Close()

	var collected []error
	for {
		val, ok, err := iter.Next(ctx)
		stage := "source"
		if err == nil {
			if !ok {
				break
			}
			stage = "dest"
			if err = u.dest.Call(ctx, val); err == nil {
				items++
				continue
			}
			err = errors.Wrap(err, errors.CodeDest, "consume item")
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		failures++
		switch u.opts.policy {
		case Abort:
			return err
		case CollectErrors:
			collected = append(collected, err)
		default:
			log.Error("item failed", logger.ErrorFields(stage, err))
		}
	}
	return errors.Join(collected...)
}

// Stats returns the summary of the most recently completed run. Runs may
// overlap; each keeps its own counters.
func (u *SourceUnit[T]) Stats() Stats {
	if s := u.last.Load(); s != nil {
		return *s
	}
	return Stats{}
}

// String implements fmt.Stringer.
func (u *SourceUnit[T]) String() string {
	return fmt.Sprintf("unit(%s)", u.opts.name)
}
