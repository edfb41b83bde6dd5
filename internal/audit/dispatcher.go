package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls how events are buffered between the engine and the sink.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull trades completeness for latency: a full buffer drops the
	// event instead of blocking the session operation that produced it.
	DropIfFull bool
}

// envelope keeps the emitting request's values (tenant, client ip, trace)
// without its deadline, so delivery outlives the request.
type envelope struct {
	ctx   context.Context
	event Event
}

// Dispatcher relays events to a sink on a single goroutine, preserving the
// order in which session operations emitted them.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool
	queue      chan envelope
	stop       chan struct{}
	stopped    sync.WaitGroup
	closing    atomic.Bool
	closeOnce  sync.Once
	dropped    atomic.Uint64
}

// NewDispatcher returns nil when audit is disabled; a nil *Dispatcher
// accepts every call as a no-op.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan envelope, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
	}
	d.stopped.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer d.stopped.Done()
	for {
		select {
		case env := <-d.queue:
			d.sink.Emit(env.ctx, env.event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

// drain delivers whatever was queued before Close.
func (d *Dispatcher) drain() {
	for {
		select {
		case env := <-d.queue:
			d.sink.Emit(env.ctx, env.event)
		default:
			return
		}
	}
}

// Emit queues event. Without DropIfFull it waits for buffer space until ctx
// is done or the dispatcher closes.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	env := envelope{ctx: context.WithoutCancel(ctx), event: event}

	if d.dropIfFull {
		select {
		case d.queue <- env:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- env:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close stops accepting events, delivers the queued ones and waits for the
// sink to return. Later calls are no-ops.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closing.Store(true)
		close(d.stop)
		d.stopped.Wait()
	})
}

// Dropped counts events discarded under DropIfFull.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
