package pipeline

import "context"

// Pipe runs work on each item of src, one at a time and in order.
// Failed upstream items are forwarded without calling work; a work failure
// becomes a failed item and the stream continues.
func Pipe[I, O any](src Source[I], work Work[I, O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &pipeIter[I, O]{source: src.Iter(ctx), work: work}
		},
	}
}

// Map is Pipe with a plain function.
func Map[I, O any](src Source[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return Pipe[I, O](src, WorkFunc[I, O](fn))
}

// ThenPipe runs work on the outcome of every upstream item, including
// failures, so work can recover them.
func ThenPipe[I, O any](src Source[I], work Work[Result[I], O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &thenIter[I, O]{source: src.Iter(ctx), work: work}
		},
	}
}

// Filter runs work on each item and drops the ones it maps to None.
func Filter[I, O any](src Source[I], work Work[I, Option[O]]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &filterIter[I, O]{source: src.Iter(ctx), work: work}
		},
	}
}

// FilterFunc keeps only values that satisfy the predicate.
func FilterFunc[T any](src Source[T], pred func(T) bool) *Pipeline[T] {
	return Filter[T, T](src, WorkFunc[T, Option[T]](func(_ context.Context, v T) (Option[T], error) {
		if pred(v) {
			return Some(v), nil
		}
		return None[T](), nil
	}))
}

// Tap calls fn as a side-effect for each value, then passes the value through unchanged.
// Use for logging or metrics. A failing fn turns the item into a failure.
func Tap[T any](src Source[T], fn func(context.Context, T) error) *Pipeline[T] {
	return Pipe[T, T](src, WorkFunc[T, T](func(ctx context.Context, v T) (T, error) {
		if err := fn(ctx, v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}))
}

// Flatten yields the items of each inner source in order. A failure inside
// an inner source is yielded and ends that inner source only; the next outer
// item is started afterwards.
func Flatten[T any](src Source[Source[T]]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &flattenIter[Source[T], T]{source: src.Iter(ctx), open: func(ctx context.Context, s Source[T]) Iterator[T] {
				return s.Iter(ctx)
			}}
		},
	}
}

// FlattenSlices yields the elements of each slice in order.
func FlattenSlices[T any](src Source[[]T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &flattenIter[[]T, T]{source: src.Iter(ctx), open: func(_ context.Context, items []T) Iterator[T] {
				return &sliceIter[T]{items: items}
			}}
		},
	}
}

// FlatMap runs work on each item and flattens the sources it returns.
func FlatMap[I, O any](src Source[I], work Work[I, Source[O]]) *Pipeline[O] {
	return Flatten[O](Pipe[I, Source[O]](src, work))
}

// Concat joins sources sequentially.
// All values from the first source are yielded before the second, etc.
func Concat[T any](sources ...Source[T]) *Pipeline[T] {
	return Flatten[T](FromSlice(sources))
}

// Cloned yields two outputs per item: work1 on a copy of the item followed
// by work2 on the item itself. The copy is a plain value copy; use
// AsyncCloned for items whose content must be loaded before duplicating.
// When work1 fails its error is yielded and work2 is skipped for that item;
// the stream continues with the next item.
func Cloned[T, O any](src Source[T], work1, work2 Work[T, O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &clonedIter[T, O]{
				source: src.Iter(ctx),
				clone:  func(_ context.Context, v T) (T, error) { return v, nil },
				work1:  work1,
				work2:  work2,
			}
		},
	}
}

// AsyncCloner is implemented by items that can produce an independent copy
// of themselves, possibly performing I/O to do so.
type AsyncCloner[T any] interface {
	AsyncClone(ctx context.Context) (T, error)
}

// AsyncCloned is Cloned for items that duplicate themselves through
// AsyncClone. A clone failure is yielded and both works are skipped.
func AsyncCloned[T AsyncCloner[T], O any](src Source[T], work1, work2 Work[T, O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &clonedIter[T, O]{
				source: src.Iter(ctx),
				clone:  func(ctx context.Context, v T) (T, error) { return v.AsyncClone(ctx) },
				work1:  work1,
				work2:  work2,
			}
		},
	}
}

// --- Iterator implementations ---

type pipeIter[I, O any] struct {
	source Iterator[I]
	work   Work[I, O]
}

func (it *pipeIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		var zero O
		return zero, false, err
	}
	out, err := it.work.Call(ctx, val)
	if err != nil {
		var zero O
		return zero, false, err
	}
	return out, true, nil
}

func (it *pipeIter[I, O]) Close() error { return it.source.Close() }

type thenIter[I, O any] struct {
	source Iterator[I]
	work   Work[Result[I], O]
}

func (it *thenIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	val, ok, err := it.source.Next(ctx)
	if err == nil && !ok {
		return zero, false, nil
	}
	if err != nil && ctx.Err() != nil {
		return zero, false, err
	}
	out, err := it.work.Call(ctx, Result[I]{Value: val, Err: err})
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *thenIter[I, O]) Close() error { return it.source.Close() }

type filterIter[I, O any] struct {
	source Iterator[I]
	work   Work[I, Option[O]]
}

func (it *filterIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		opt, err := it.work.Call(ctx, val)
		if err != nil {
			return zero, false, err
		}
		if out, keep := opt.Get(); keep {
			return out, true, nil
		}
	}
}

func (it *filterIter[I, O]) Close() error { return it.source.Close() }

type flattenIter[S, T any] struct {
	source  Iterator[S]
	open    func(context.Context, S) Iterator[T]
	current Iterator[T]
}

func (it *flattenIter[S, T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		if it.current != nil {
			val, ok, err := it.current.Next(ctx)
			if ok {
				return val, true, nil
			}
			_ = it.current.Close()
			it.current = nil
			if err != nil {
				return zero, false, err
			}
		}
		inner, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		it.current = it.open(ctx, inner)
	}
}

func (it *flattenIter[S, T]) Close() error {
	if it.current != nil {
		_ = it.current.Close()
		it.current = nil
	}
	return it.source.Close()
}

type clonedIter[T, O any] struct {
	source  Iterator[T]
	clone   func(context.Context, T) (T, error)
	work1   Work[T, O]
	work2   Work[T, O]
	pending T
	hasNext bool
}

func (it *clonedIter[T, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	if it.hasNext {
		orig := it.pending
		var empty T
		it.pending, it.hasNext = empty, false
		out, err := it.work2.Call(ctx, orig)
		if err != nil {
			return zero, false, err
		}
		return out, true, nil
	}

	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	dup, err := it.clone(ctx, val)
	if err != nil {
		return zero, false, err
	}
	out, err := it.work1.Call(ctx, dup)
	if err != nil {
		return zero, false, err
	}
	it.pending, it.hasNext = val, true
	return out, true, nil
}

func (it *clonedIter[T, O]) Close() error { return it.source.Close() }
