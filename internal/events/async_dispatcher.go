package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when an event is dropped because every slot is taken.
	ErrQueueFull = errors.New("event queue full")
	// ErrDispatcherClosed is returned after Close.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// AsyncDispatcher queues events for a pool of workers. Publish never blocks:
// when the queue is full the event is dropped and reported through onDrop.
type AsyncDispatcher struct {
	inner  Dispatcher
	queue  chan queuedEvent
	logger *zap.Logger
	onDrop func(Event)

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncDispatcher wraps inner with a bounded queue.
func NewAsyncDispatcher(inner Dispatcher, queueSize int, logger *zap.Logger, onDrop func(Event)) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncDispatcher{
		inner:  inner,
		queue:  make(chan queuedEvent, queueSize),
		logger: logger,
		onDrop: onDrop,
	}
}

// Start launches workers that drain the queue until Close.
func (d *AsyncDispatcher) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for item := range d.queue {
		if err := d.inner.Publish(item.ctx, item.event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(item.event.Type)),
				zap.String("ticket_id", item.event.TicketID),
				zap.Error(err))
		}
	}
}

// Publish enqueues the event. The handler context is detached from the
// caller's cancellation so a finished request does not abort delivery.
func (d *AsyncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		if d.onDrop != nil {
			d.onDrop(event)
		}
		return ErrQueueFull
	}
}

// Subscribe registers a handler on the wrapped dispatcher.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.inner.Subscribe(eventType, handler)
}

// Close stops accepting events and waits for queued ones to be handled.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}
