// Package pipeline provides typed, composable, pull-based pipeline stages.
//
// A Source produces a lazy stream of items, a Work transforms one item into
// one output, and a Dest consumes items. Pipelines are lazy: no work happens
// until values are pulled, and each stage pulls from the previous one on
// demand, which gives natural backpressure without explicit flow control.
//
// Failures travel through a stream as items. A failed item does not end the
// stream; it is forwarded past every stage until a Unit decides what to do
// with it according to its ErrorPolicy.
//
// This holds for every operator. A failing work in Cloned or AsyncCloned
// yields its error in place of that item's outputs, a failing inner source
// in Flatten yields its error and moves on to the next source, and a failing
// call in Concurrent yields its error while the other calls carry on. Only a
// Unit with the Abort policy, or a cancelled context, stops a run early.
//
// # Work combinators
//
//   - And: run two works in sequence, short-circuiting on the first failure
//   - Then: pass the Result of a work to the next one, the only recovery point
//   - Cond: run a work only when a predicate holds, producing an Either
//   - Split, Branch: route an Either to one of two works
//   - Wrap: decorate a work (logging, metrics, timeouts)
//
// # Source combinators
//
// Sequential (single-goroutine, order preserved):
//
//   - Pipe, Map: apply a work to each item
//   - ThenPipe: apply a work to each item's Result
//   - Filter, FilterFunc: drop items
//   - Flatten, FlattenSlices, FlatMap, Concat: flatten nested sequences
//   - Cloned, AsyncCloned: run two works on a duplicate and on the original
//
// Concurrent (multi-goroutine, order NOT preserved):
//
//   - Concurrent: at most n work calls in flight
//   - Spawn: produce on a background goroutine into a bounded channel
//   - Merge: interleave several sources
//
// # Usage
//
//	src := pipeline.FromSlice([]int{1, 2, 3})
//	double := pipeline.Lift(func(n int) int { return n * 2 })
//	out := pipeline.Concurrent(src, double, 4)
//	err := pipeline.Drive(out, sink, pipeline.WithErrorPolicy(pipeline.Abort)).Run(ctx)
package pipeline
