package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/drowselabs/drowse/internal/sleep"
	"github.com/drowselabs/drowse/internal/store"
)

// ErrBadQuality is returned for scores outside the 0..5 scale.
var ErrBadQuality = errors.New("quality score out of range")

// Rater is the state holder behind the rating screen. It is built for one
// target session and raises an edge-triggered signal when a rating has
// been persisted, telling the observer to navigate back. A target that no
// longer exists is skipped silently: no write, no signal.
type Rater struct {
	store  store.Store
	logger *log.Logger
	disp   *dispatcher
	target int64

	mu         sync.Mutex
	navigate   bool
	subs       map[<-chan struct{}]chan struct{}
	subsClosed bool

	closeOnce sync.Once
}

// RaterOption configures a Rater.
type RaterOption func(*Rater)

// WithRaterLogger replaces the default stderr logger.
func WithRaterLogger(l *log.Logger) RaterOption {
	return func(r *Rater) { r.logger = l }
}

// NewRater builds a Rater for the session with the given id and starts
// its owner goroutine. Call Close when done.
func NewRater(st store.Store, target int64, opts ...RaterOption) *Rater {
	r := &Rater{
		store:  st,
		logger: log.New(os.Stderr, "[rater] ", log.LstdFlags),
		target: target,
		subs:   make(map[<-chan struct{}]chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.disp = newDispatcher(r.logger)
	return r
}

// Target returns the session id this rater was built for.
func (r *Rater) Target() int64 {
	return r.target
}

// Rate persists a quality score on the target session and raises the
// navigate signal. When the target has been deleted in the meantime the
// workflow finishes without writing and without a signal.
func (r *Rater) Rate(ctx context.Context, score int) error {
	if !sleep.ValidQuality(score) {
		return fmt.Errorf("%w: %d is not in %d..%d", ErrBadQuality, score, sleep.QualityMin, sleep.QualityMax)
	}

	return r.disp.do(ctx, "rate session", func(ctx context.Context) error {
		sess, err := r.store.Get(ctx, r.target)
		if err != nil {
			return fmt.Errorf("failed to load session %d: %w", r.target, err)
		}
		if sess == nil {
			r.logger.Printf("session %d is gone; skipping rating", r.target)
			return nil
		}

		sess.Quality = score
		if err := r.store.Update(ctx, sess); err != nil {
			return fmt.Errorf("failed to save rating for session %d: %w", r.target, err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		r.raiseNavigate()
		return nil
	})
}

// NavigateRequested reports whether the signal is currently raised.
func (r *Rater) NavigateRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.navigate
}

// DoneNavigating acknowledges the signal and lowers it. Without the
// acknowledgement a re-subscribing observer would navigate again.
func (r *Rater) DoneNavigating() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigate = false
}

// Signals returns a channel that receives once per raised signal. A
// subscriber arriving while the signal is up receives it immediately,
// which mirrors how a re-created observer re-sees un-acknowledged state.
func (r *Rater) Signals(buffer int) <-chan struct{} {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan struct{}, buffer)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subsClosed {
		close(ch)
		return ch
	}
	if r.navigate {
		ch <- struct{}{}
	}
	r.subs[ch] = ch
	return ch
}

// Unsubscribe removes a signal subscription and closes its channel.
func (r *Rater) Unsubscribe(ch <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bidi, ok := r.subs[ch]; ok {
		delete(r.subs, ch)
		close(bidi)
	}
}

// raiseNavigate flips the signal and notifies subscribers. Only the owner
// goroutine calls it.
func (r *Rater) raiseNavigate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subsClosed {
		return
	}
	r.navigate = true
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close shuts the holder down with the same semantics as Tracker.Close.
func (r *Rater) Close() error {
	r.closeOnce.Do(func() {
		r.disp.close()

		r.mu.Lock()
		r.subsClosed = true
		for _, ch := range r.subs {
			close(ch)
		}
		r.subs = nil
		r.mu.Unlock()
	})
	return nil
}
