package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events instead of waiting when the queue is full.
	DropIfFull bool
}

// Dispatcher hands events to a sink from one worker goroutine, in the order
// they were queued.
type Dispatcher struct {
	sink     Sink
	dropFull bool

	// mu guards stopped and the close of queue against concurrent sends.
	mu      sync.RWMutex
	queue   chan Event
	stopped bool
	closing chan struct{}
	once    sync.Once
	worker  sync.WaitGroup

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewDispatcher starts a dispatcher. It returns nil when cfg is disabled; a
// nil Dispatcher accepts and discards every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:     sink,
		dropFull: cfg.DropIfFull,
		queue:    make(chan Event, max(cfg.BufferSize, 1)),
		closing:  make(chan struct{}),
	}
	d.worker.Add(1)
	go d.drain()
	return d
}

func (d *Dispatcher) drain() {
	defer d.worker.Done()
	for event := range d.queue {
		d.deliver(event)
	}
}

// deliver passes one event to the sink. A panicking sink loses that event
// only; it is counted in Failed.
func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if recover() != nil {
			d.failed.Add(1)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event. With DropIfFull a full queue drops the event and counts
// it; otherwise Emit waits for room, for ctx to end, or for Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return
	}

	if d.dropFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.closing:
	}
}

// Close stops accepting events, delivers what is queued and waits for the
// worker. Later calls are no-ops.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		close(d.closing)

		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()

		d.worker.Wait()
	})
}

// Dropped reports how many events DropIfFull discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed reports how many events were lost to a panicking sink.
func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
