package pipeline

import "context"

// Iterator provides pull-based sequential access to a stream of results.
//
// Next returns (v, true, nil) for an item and (zero, false, nil) once the
// stream is exhausted. A failed item is reported as (zero, false, err); the
// stream stays usable and may be pulled again. Callers stop pulling when the
// context is done.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Source produces a fresh Iterator each time it is started.
type Source[T any] interface {
	Iter(ctx context.Context) Iterator[T]
}

// SourceFunc adapts a factory function to Source.
type SourceFunc[T any] func(ctx context.Context) Iterator[T]

// Iter calls f(ctx).
func (f SourceFunc[T]) Iter(ctx context.Context) Iterator[T] { return f(ctx) }

// Pipeline is a lazy, pull-based source built from other sources.
// No work happens until values are pulled.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Iter returns the raw Iterator for this pipeline. The caller must Close() it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.create(ctx)
}

// Result is the outcome of one stage call.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok returns a successful Result.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail returns a failed Result.
func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// Get returns the value and error.
func (r Result[T]) Get() (T, error) { return r.Value, r.Err }

// result carries a value or error through a channel.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// channelIter reads values from a channel. Used by concurrent operators.
type channelIter[T any] struct {
	ch     <-chan result[T]
	closer func() error
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case r, open := <-it.ch:
		if !open {
			var zero T
			return zero, false, nil
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

func (it *channelIter[T]) Close() error {
	if it.closer != nil {
		return it.closer()
	}
	return nil
}

// --- Constructors ---

// From wraps an existing source as a Pipeline.
func From[T any](src Source[T]) *Pipeline[T] {
	if p, ok := src.(*Pipeline[T]); ok {
		return p
	}
	return &Pipeline[T]{create: src.Iter}
}

// FromSlice creates a finite source over items.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(_ context.Context) Iterator[T] {
			return &sliceIter[T]{items: items}
		},
	}
}

// FromResults creates a finite source that yields values and failures in order.
func FromResults[T any](results []Result[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(_ context.Context) Iterator[T] {
			return &resultsIter[T]{results: results}
		},
	}
}

// Once creates a source yielding a single result.
func Once[T any](v T, err error) *Pipeline[T] {
	return FromResults([]Result[T]{{Value: v, Err: err}})
}

// Empty creates a source with no items.
func Empty[T any]() *Pipeline[T] {
	return FromSlice[T](nil)
}

// FromChannel creates a source that receives from ch until it is closed.
// Each started iterator reads from the same channel.
func FromChannel[T any](ch <-chan Result[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(_ context.Context) Iterator[T] {
			return &recvIter[T]{ch: ch}
		},
	}
}

// FromFunc creates a pipeline from a factory that produces an Iterator.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: fn}
}

// --- Terminals ---

// Collect pulls all values into a slice. It stops at the first failure and
// returns the values collected before it.
func Collect[T any](ctx context.Context, src Source[T]) ([]T, error) {
	iter := src.Iter(ctx)
	defer iter.Close()
	var out []T
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, val)
	}
}

// CollectResults pulls every item, keeping failures in place, until the
// source is exhausted or ctx is done.
func CollectResults[T any](ctx context.Context, src Source[T]) ([]Result[T], error) {
	iter := src.Iter(ctx)
	defer iter.Close()
	var out []Result[T]
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out = append(out, Fail[T](err))
			continue
		}
		if !ok {
			return out, nil
		}
		out = append(out, Ok(val))
	}
}

// ForEach pulls all values and calls fn for each, stopping at the first error.
func ForEach[T any](ctx context.Context, src Source[T], fn func(context.Context, T) error) error {
	iter := src.Iter(ctx)
	defer iter.Close()
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(ctx, val); err != nil {
			return err
		}
	}
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type resultsIter[T any] struct {
	results []Result[T]
	index   int
}

func (it *resultsIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.results) {
		var zero T
		return zero, false, nil
	}
	r := it.results[it.index]
	it.index++
	if r.Err != nil {
		var zero T
		return zero, false, r.Err
	}
	return r.Value, true, nil
}

func (it *resultsIter[T]) Close() error { return nil }

type recvIter[T any] struct {
	ch <-chan Result[T]
}

func (it *recvIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case r, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		if r.Err != nil {
			return zero, false, r.Err
		}
		return r.Value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *recvIter[T]) Close() error { return nil }

// errIter yields a single failure and is then exhausted.
type errIter[T any] struct {
	err error
}

func (it *errIter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if it.err == nil {
		return zero, false, nil
	}
	err := it.err
	it.err = nil
	return zero, false, err
}

func (it *errIter[T]) Close() error { return nil }
