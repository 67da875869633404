package tracker

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrClosed is returned for workflows issued to a closed state holder.
var ErrClosed = errors.New("state holder is closed")

// task is one queued workflow for a state holder's owner goroutine.
type task struct {
	name string
	run  func(ctx context.Context) error
	done chan error
}

// dispatcher serializes a state holder's workflows onto a single owner
// goroutine. Workflows run to completion in issuance order; each one gets
// the holder's lifecycle context, so closing the holder cancels whatever
// is in flight and abandons whatever is still queued.
type dispatcher struct {
	tasks  chan task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger

	mu     sync.Mutex
	closed bool
}

func newDispatcher(logger *log.Logger) *dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &dispatcher{
		tasks:  make(chan task, 64),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case t := <-d.tasks:
			d.execute(t)
		case <-d.ctx.Done():
			d.drain()
			return
		}
	}
}

func (d *dispatcher) execute(t task) {
	// The select above picks arbitrarily when both cases are ready.
	if d.ctx.Err() != nil {
		t.done <- ErrClosed
		return
	}

	err := t.run(d.ctx)
	if err != nil && !quietErr(err) {
		d.logger.Printf("%s failed: %v", t.name, err)
	}
	t.done <- err
}

// drain fails every queued-but-unstarted workflow after shutdown.
func (d *dispatcher) drain() {
	for {
		select {
		case t := <-d.tasks:
			t.done <- ErrClosed
		default:
			return
		}
	}
}

// do enqueues a workflow and waits for it to complete. The wait can be
// abandoned through ctx, but the workflow itself runs under the holder's
// lifecycle context and is not cancelled by the caller giving up.
func (d *dispatcher) do(ctx context.Context, name string, run func(ctx context.Context) error) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.mu.Unlock()

	t := task{name: name, run: run, done: make(chan error, 1)}

	select {
	case d.tasks <- t:
	case <-d.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-d.ctx.Done():
		// Prefer a result that landed just before shutdown.
		select {
		case err := <-t.done:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post enqueues a workflow without waiting for its result. Used for
// reactive refreshes where nobody cares about completion. Dropped
// silently once the holder is closed.
func (d *dispatcher) post(name string, run func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	t := task{name: name, run: run, done: make(chan error, 1)}
	select {
	case d.tasks <- t:
	case <-d.ctx.Done():
	}
}

// close shuts the dispatcher down: no new workflows, queued ones fail with
// ErrClosed, the in-flight one finishes against a cancelled context.
// Idempotent.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.drain()
}

// quietErr reports errors that are expected control flow and not worth a
// log line: holder shutdown and the no-op sentinels.
func quietErr(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, ErrAlreadyTracking) ||
		errors.Is(err, ErrNotTracking)
}
