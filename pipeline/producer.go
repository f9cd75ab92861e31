package pipeline

import (
	"context"
	"sync"

	"github.com/kbukum/kravl/errors"
)

// Producer is the sending half of a bounded channel whose receiving half is
// a Source. Any number of goroutines may send; Close must be called once all
// of them are done so the source can finish.
type Producer[T any] struct {
	ch     chan Result[T]
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewProducer creates a producer with a channel of the given size.
func NewProducer[T any](size int) *Producer[T] {
	if size < 0 {
		size = 0
	}
	return &Producer[T]{
		ch:   make(chan Result[T], size),
		done: make(chan struct{}),
	}
}

// Send delivers v, blocking while the channel is full.
func (p *Producer[T]) Send(ctx context.Context, v T) error {
	return p.deliver(ctx, Result[T]{Value: v})
}

// SendErr delivers a failed item.
func (p *Producer[T]) SendErr(ctx context.Context, err error) error {
	return p.deliver(ctx, Result[T]{Err: err})
}

func (p *Producer[T]) deliver(ctx context.Context, r Result[T]) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.Closed("producer")
	}
	select {
	case p.ch <- r:
		return nil
	case <-p.done:
		return errors.Closed("producer")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the source once buffered items are drained. Senders still
// blocked on a full channel are released with a CodeClosed error.
func (p *Producer[T]) Close() {
	p.once.Do(func() {
		close(p.done)
		p.mu.Lock()
		p.closed = true
		close(p.ch)
		p.mu.Unlock()
	})
}

// Source returns the receiving half.
func (p *Producer[T]) Source() *Pipeline[T] {
	return FromChannel[T](p.ch)
}
