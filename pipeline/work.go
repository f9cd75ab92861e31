package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/kravl/errors"
)

// Work transforms one input into one output or fails.
// Implementations hold only shared configuration; they must be safe for
// concurrent use when run under Concurrent.
type Work[I, O any] interface {
	Call(ctx context.Context, in I) (O, error)
}

// WorkFunc adapts a function to Work.
type WorkFunc[I, O any] func(ctx context.Context, in I) (O, error)

// Call calls f(ctx, in).
func (f WorkFunc[I, O]) Call(ctx context.Context, in I) (O, error) { return f(ctx, in) }

// Lift turns a pure function into a Work that never fails.
func Lift[I, O any](fn func(I) O) WorkFunc[I, O] {
	return func(_ context.Context, in I) (O, error) {
		return fn(in), nil
	}
}

// Noop returns its input unchanged.
func Noop[T any]() WorkFunc[T, T] {
	return func(_ context.Context, in T) (T, error) {
		return in, nil
	}
}

// And runs left, then feeds its output to right. When left fails, right is
// not called and left's error is returned.
func And[I, M, O any](left Work[I, M], right Work[M, O]) WorkFunc[I, O] {
	return func(ctx context.Context, in I) (O, error) {
		mid, err := left.Call(ctx, in)
		if err != nil {
			var zero O
			return zero, err
		}
		return right.Call(ctx, mid)
	}
}

// Chain composes works of the same type left to right with And semantics.
func Chain[T any](works ...Work[T, T]) WorkFunc[T, T] {
	return func(ctx context.Context, in T) (T, error) {
		var err error
		for _, w := range works {
			if in, err = w.Call(ctx, in); err != nil {
				var zero T
				return zero, err
			}
		}
		return in, nil
	}
}

// Then runs left and always passes its outcome to right, success or not.
// It is the only combinator that lets a later stage recover from a failure.
func Then[I, M, O any](left Work[I, M], right Work[Result[M], O]) WorkFunc[I, O] {
	return func(ctx context.Context, in I) (O, error) {
		mid, err := left.Call(ctx, in)
		return right.Call(ctx, Result[M]{Value: mid, Err: err})
	}
}

// Wrap decorates work with fn, which receives the input and the wrapped work
// and decides how and whether to call it.
func Wrap[I, O, P any](work Work[I, O], fn func(ctx context.Context, in I, next Work[I, O]) (P, error)) WorkFunc[I, P] {
	return func(ctx context.Context, in I) (P, error) {
		return fn(ctx, in, work)
	}
}

// Timeout bounds each call of work to d. The work must honor ctx for the
// deadline to take effect.
func Timeout[I, O any](work Work[I, O], d time.Duration) WorkFunc[I, O] {
	return func(ctx context.Context, in I) (O, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		out, err := work.Call(ctx, in)
		if err != nil && ctx.Err() == context.DeadlineExceeded {
			return out, errors.Wrapf(err, errors.CodeTimeout, "work exceeded %s", d)
		}
		return out, err
	}
}
