package pipeline

import "context"

// Either holds exactly one of a left or a right value.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

// Left returns an Either holding a left value.
func Left[L, R any](v L) Either[L, R] { return Either[L, R]{left: v} }

// Right returns an Either holding a right value.
func Right[L, R any](v R) Either[L, R] { return Either[L, R]{right: v, isRight: true} }

// IsRight reports whether the right value is set.
func (e Either[L, R]) IsRight() bool { return e.isRight }

// Left returns the left value and whether it is set.
func (e Either[L, R]) Left() (L, bool) { return e.left, !e.isRight }

// Right returns the right value and whether it is set.
func (e Either[L, R]) Right() (R, bool) { return e.right, e.isRight }

// Option is a value that may be absent.
type Option[T any] struct {
	value T
	ok    bool
}

// Some returns a present Option.
func Some[T any](v T) Option[T] { return Option[T]{value: v, ok: true} }

// None returns an absent Option.
func None[T any]() Option[T] { return Option[T]{} }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.ok }

// Cond passes inputs failing pred through unchanged as Left and routes the
// rest through work, returning its output as Right. A work failure fails
// the call.
func Cond[I, O any](pred func(I) bool, work Work[I, O]) WorkFunc[I, Either[I, O]] {
	return func(ctx context.Context, in I) (Either[I, O], error) {
		if !pred(in) {
			return Left[I, O](in), nil
		}
		out, err := work.Call(ctx, in)
		if err != nil {
			return Either[I, O]{}, err
		}
		return Right[I](out), nil
	}
}

// Split runs splitter and routes its Left output to left and its Right
// output to right. A splitter failure short-circuits both branches.
func Split[I, L, R, O any](splitter Work[I, Either[L, R]], left Work[L, O], right Work[R, O]) WorkFunc[I, O] {
	return And[I, Either[L, R], O](splitter, Branch(left, right))
}

// Branch routes an Either to left or right.
func Branch[L, R, O any](left Work[L, O], right Work[R, O]) WorkFunc[Either[L, R], O] {
	return func(ctx context.Context, in Either[L, R]) (O, error) {
		if r, ok := in.Right(); ok {
			return right.Call(ctx, r)
		}
		l, _ := in.Left()
		return left.Call(ctx, l)
	}
}
