package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultSpawnBuffer is the channel size used by Spawn when none is given.
const DefaultSpawnBuffer = 10

// Concurrent runs work on up to n items at once. A new item is pulled from
// src only while fewer than n calls are in flight. Outputs are yielded in
// completion order, not input order. Failed upstream items and work
// failures are yielded as failures.
func Concurrent[I, O any](src Source[I], work Work[I, O], n int) *Pipeline[O] {
	if n <= 0 {
		n = 1
	}
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			runCtx, cancel := context.WithCancel(ctx)
			out := make(chan result[O], n)
			sem := semaphore.NewWeighted(int64(n))

			go func() {
				source := src.Iter(runCtx)
				var inflight errgroup.Group
				defer func() {
					_ = inflight.Wait()
					_ = source.Close()
					close(out)
				}()

				for {
					if err := sem.Acquire(runCtx, 1); err != nil {
						return
					}
					val, ok, err := source.Next(runCtx)
					if err != nil {
						sem.Release(1)
						if runCtx.Err() != nil || !send(runCtx, out, result[O]{err: err}) {
							return
						}
						continue
					}
					if !ok {
						sem.Release(1)
						return
					}
					inflight.Go(func() error {
						defer sem.Release(1)
						o, err := work.Call(runCtx, val)
						if err != nil {
							send(runCtx, out, result[O]{err: err})
							return nil
						}
						send(runCtx, out, result[O]{val: o, ok: true})
						return nil
					})
				}
			}()

			return &channelIter[O]{
				ch: out,
				closer: func() error {
					cancel()
					return nil
				},
			}
		},
	}
}

// Spawn runs src on a background goroutine that fills a channel of the given
// size, so production continues while the consumer is busy. A size of zero
// or less uses DefaultSpawnBuffer.
func Spawn[T any](src Source[T], size int) *Pipeline[T] {
	if size <= 0 {
		size = DefaultSpawnBuffer
	}
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			bufCtx, cancel := context.WithCancel(ctx)
			ch := make(chan result[T], size)

			go func() {
				source := src.Iter(bufCtx)
				defer close(ch)
				defer source.Close()
				for {
					val, ok, err := source.Next(bufCtx)
					if err != nil {
						if bufCtx.Err() != nil || !send(bufCtx, ch, result[T]{err: err}) {
							return
						}
						continue
					}
					if !ok {
						return
					}
					if !send(bufCtx, ch, result[T]{val: val, ok: true}) {
						return
					}
				}
			}()

			return &channelIter[T]{
				ch: ch,
				closer: func() error {
					cancel()
					return nil
				},
			}
		},
	}
}

// Merge runs all sources concurrently and yields items as they arrive.
// Order is NOT preserved.
func Merge[T any](sources ...Source[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			mergeCtx, cancel := context.WithCancel(ctx)
			ch := make(chan result[T], len(sources))
			var g errgroup.Group

			for _, src := range sources {
				g.Go(func() error {
					iter := src.Iter(mergeCtx)
					defer iter.Close()
					for {
						val, ok, err := iter.Next(mergeCtx)
						if err != nil {
							if mergeCtx.Err() != nil || !send(mergeCtx, ch, result[T]{err: err}) {
								return nil
							}
							continue
						}
						if !ok {
							return nil
						}
						if !send(mergeCtx, ch, result[T]{val: val, ok: true}) {
							return nil
						}
					}
				})
			}

			go func() {
				_ = g.Wait()
				close(ch)
			}()

			return &channelIter[T]{
				ch: ch,
				closer: func() error {
					cancel()
					return nil
				},
			}
		},
	}
}

// send delivers r unless ctx is done first.
func send[T any](ctx context.Context, ch chan<- result[T], r result[T]) bool {
	select {
	case ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
