// Package tracker contains the state holders behind the tracking and
// rating screens: Tracker owns the open session and the history view,
// Rater owns one rating workflow and the navigate-back signal.
//
// Each holder runs its workflows on a single owner goroutine fed by a
// FIFO queue, so store access never overlaps within a holder and
// observers see state transitions in the order the triggers were issued.
// Observable state is always re-derived from the store after a mutation,
// never computed locally; the store is the source of truth.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/drowselabs/drowse/internal/sleep"
	"github.com/drowselabs/drowse/internal/store"
)

var (
	// ErrAlreadyTracking is returned by Start when an open session exists.
	ErrAlreadyTracking = errors.New("a session is already being tracked")

	// ErrNotTracking is returned by Stop when no session is open.
	ErrNotTracking = errors.New("no session is being tracked")
)

// Snapshot is the tracker's published state: the open session (nil when
// absent) and the full history, newest first. Both are deep copies.
type Snapshot struct {
	Current *sleep.Session
	History []*sleep.Session
}

// Tracker is the state holder behind the tracking screen.
type Tracker struct {
	store  store.Store
	clock  clockwork.Clock
	logger *log.Logger
	disp   *dispatcher

	mu      sync.RWMutex
	current *sleep.Session
	history []*sleep.Session

	subMu      sync.Mutex
	subs       map[<-chan Snapshot]chan Snapshot
	subsClosed bool

	storeCh <-chan store.Event
	pumpWG  sync.WaitGroup

	closeOnce sync.Once
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock; tests install a fake.
func WithClock(c clockwork.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New builds a Tracker over st and starts its owner goroutine. The
// initial load from the store is queued before New returns, so it runs
// ahead of any trigger. Call Close when done.
func New(st store.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  st,
		clock:  clockwork.NewRealClock(),
		logger: log.New(os.Stderr, "[tracker] ", log.LstdFlags),
		subs:   make(map[<-chan Snapshot]chan Snapshot),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.disp = newDispatcher(t.logger)
	t.disp.post("initial load", t.refresh)

	t.storeCh = st.Subscribe(16)
	t.pumpWG.Add(1)
	go t.pump()

	return t
}

// pump turns store change events into refresh workflows. The store closes
// the channel on Unsubscribe, which ends the goroutine.
func (t *Tracker) pump() {
	defer t.pumpWG.Done()
	for range t.storeCh {
		t.disp.post("refresh", t.refresh)
	}
}

// Current returns a copy of the open session, or nil when none is open.
func (t *Tracker) Current() *sleep.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current.Clone()
}

// History returns a copy of the history view, newest first.
func (t *Tracker) History() []*sleep.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sleep.CloneAll(t.history)
}

// Subscribe returns a channel of state snapshots. A snapshot is published
// after every workflow that touched the store. Sends never block; when the
// buffer is full the stale snapshot is replaced in spirit by the one
// already queued.
func (t *Tracker) Subscribe(buffer int) <-chan Snapshot {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	t.subMu.Lock()
	defer t.subMu.Unlock()
	if t.subsClosed {
		close(ch)
		return ch
	}
	t.subs[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (t *Tracker) Unsubscribe(ch <-chan Snapshot) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	if bidi, ok := t.subs[ch]; ok {
		delete(t.subs, ch)
		close(bidi)
	}
}

// Start begins tracking a session now.
func (t *Tracker) Start(ctx context.Context) error {
	return t.StartAt(ctx, t.clock.Now())
}

// StartAt begins tracking a session with an explicit bedtime. When an open
// session already exists the store is left untouched and
// ErrAlreadyTracking is returned.
func (t *Tracker) StartAt(ctx context.Context, at time.Time) error {
	return t.disp.do(ctx, "start tracking", func(ctx context.Context) error {
		latest, err := t.store.Latest(ctx)
		if err != nil {
			return fmt.Errorf("failed to check for open session: %w", err)
		}
		if latest != nil && latest.Open() {
			return ErrAlreadyTracking
		}

		if _, err := t.store.Insert(ctx, sleep.NewOpen(at)); err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		// Re-derive from the store so Current carries the assigned ID.
		return t.refresh(ctx)
	})
}

// Stop closes the open session now and returns it.
func (t *Tracker) Stop(ctx context.Context) (*sleep.Session, error) {
	return t.StopAt(ctx, t.clock.Now())
}

// StopAt closes the open session with an explicit wake time. With no open
// session the store is left untouched and ErrNotTracking is returned.
// After a successful stop Current is re-derived from the store; the
// just-closed record fails the open check, so Current becomes nil.
func (t *Tracker) StopAt(ctx context.Context, at time.Time) (*sleep.Session, error) {
	var closed *sleep.Session

	err := t.disp.do(ctx, "stop tracking", func(ctx context.Context) error {
		latest, err := t.store.Latest(ctx)
		if err != nil {
			return fmt.Errorf("failed to check for open session: %w", err)
		}
		if latest == nil || !latest.Open() {
			return ErrNotTracking
		}
		if at.UnixMilli() <= latest.Start.UnixMilli() {
			return fmt.Errorf("wake time %s is not after bedtime %s",
				at.Format(time.RFC3339), latest.Start.Format(time.RFC3339))
		}

		latest.End = at
		if err := t.store.Update(ctx, latest); err != nil {
			return fmt.Errorf("failed to close session %d: %w", latest.ID, err)
		}
		closed = latest.Clone()

		return t.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// Clear deletes every session.
func (t *Tracker) Clear(ctx context.Context) error {
	return t.disp.do(ctx, "clear sessions", func(ctx context.Context) error {
		if err := t.store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		return t.refresh(ctx)
	})
}

// Sync is a barrier: it returns once every workflow issued before it has
// completed. Tests and the CLI use it to observe settled state.
func (t *Tracker) Sync(ctx context.Context) error {
	return t.disp.do(ctx, "sync", func(context.Context) error { return nil })
}

// refresh re-derives the observable state from the store and publishes it.
// It is the final phase of every workflow and the whole of the reactive
// refresh triggered by store change events.
func (t *Tracker) refresh(ctx context.Context) error {
	latest, err := t.store.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to load latest session: %w", err)
	}

	var current *sleep.Session
	if latest != nil && latest.Open() {
		current = latest
	}

	history, err := t.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	// A holder that has been closed while the store calls were in flight
	// must not publish the results.
	if err := ctx.Err(); err != nil {
		return err
	}

	t.publish(current, history)
	return nil
}

// publish stores the new state and fans a snapshot out to subscribers.
// Only the owner goroutine calls it.
func (t *Tracker) publish(current *sleep.Session, history []*sleep.Session) {
	t.mu.Lock()
	t.current = current
	t.history = history
	t.mu.Unlock()

	snap := Snapshot{Current: current.Clone(), History: sleep.CloneAll(history)}

	t.subMu.Lock()
	defer t.subMu.Unlock()
	if t.subsClosed {
		return
	}
	for _, ch := range t.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close shuts the holder down: queued workflows are abandoned, the
// in-flight one finishes without publishing, the store subscription ends,
// and all snapshot channels close. Idempotent. Writes already committed by
// finished workflows are not rolled back.
func (t *Tracker) Close() error {
	t.closeOnce.Do(func() {
		t.disp.close()

		t.store.Unsubscribe(t.storeCh)
		t.pumpWG.Wait()

		t.subMu.Lock()
		t.subsClosed = true
		for _, ch := range t.subs {
			close(ch)
		}
		t.subs = nil
		t.subMu.Unlock()
	})
	return nil
}
