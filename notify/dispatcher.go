package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const handleTimeout = 30 * time.Second

// Dispatcher is an in-process Publisher backed by a bounded queue and a fixed
// set of worker goroutines.
type Dispatcher struct {
	handler Handler
	log     *zap.Logger
	queue   chan CommentPosted
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(handler Handler, log *zap.Logger, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		handler: handler,
		log:     log,
		queue:   make(chan CommentPosted, queueSize),
		workers: workers,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Publish enqueues the event without blocking.
func (d *Dispatcher) Publish(_ context.Context, event CommentPosted) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for event := range d.queue {
		d.handle(event)
	}
}

func (d *Dispatcher) handle(event CommentPosted) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification handler panicked", zap.Any("panic", r), zap.Uint("comment_id", event.CommentID))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	if err := d.handler.Handle(ctx, event); err != nil {
		d.log.Error("notification delivery failed",
			zap.Error(err),
			zap.Uint("comment_id", event.CommentID),
			zap.Uint("recipient_id", event.RecipientID),
		)
	}
}

// Close stops accepting events and waits for queued ones to be handled or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
