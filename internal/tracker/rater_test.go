package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drowselabs/drowse/internal/sleep"
	"github.com/drowselabs/drowse/internal/store"
)

func seedClosedSession(t *testing.T, st store.Store) int64 {
	t.Helper()

	start := time.UnixMilli(1700000000000)
	id, err := st.Insert(context.Background(), &sleep.Session{
		Start:   start,
		End:     start.Add(7 * time.Hour),
		Quality: sleep.Unrated,
	})
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return id
}

func newTestRater(t *testing.T, st store.Store, target int64) *Rater {
	t.Helper()

	r := NewRater(st, target, WithRaterLogger(testLogger()))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// TestRate_PersistsAndSignals verifies a valid rating reaches the store
// and raises the navigate signal exactly once.
func TestRate_PersistsAndSignals(t *testing.T) {
	st := newTestStore(t)
	id := seedClosedSession(t, st)
	r := newTestRater(t, st, id)
	ctx := context.Background()

	signals := r.Signals(1)

	if err := r.Rate(ctx, 4); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	select {
	case <-signals:
	default:
		t.Fatal("no navigate signal after a successful rating")
	}
	if !r.NavigateRequested() {
		t.Error("NavigateRequested = false after a successful rating")
	}

	sess, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Quality != 4 {
		t.Errorf("stored quality = %d, want 4", sess.Quality)
	}

	r.DoneNavigating()
	if r.NavigateRequested() {
		t.Error("NavigateRequested = true after DoneNavigating")
	}
	select {
	case <-signals:
		t.Error("unexpected second navigate signal")
	default:
	}
}

// TestRate_MissingTarget verifies rating a session that no longer exists
// writes nothing and raises no signal.
func TestRate_MissingTarget(t *testing.T) {
	st := newTestStore(t)
	id := seedClosedSession(t, st)
	r := newTestRater(t, st, id)
	ctx := context.Background()

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	signals := r.Signals(1)
	if err := r.Rate(ctx, 3); err != nil {
		t.Fatalf("Rate on a missing session = %v, want nil", err)
	}

	select {
	case <-signals:
		t.Error("navigate signal raised for a missing session")
	default:
	}
	if r.NavigateRequested() {
		t.Error("NavigateRequested = true for a missing session")
	}

	sessions, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("store has %d sessions, want 0", len(sessions))
	}
}

// TestRate_InvalidScore verifies out-of-range scores are rejected before
// anything touches the store.
func TestRate_InvalidScore(t *testing.T) {
	st := newTestStore(t)
	id := seedClosedSession(t, st)
	r := newTestRater(t, st, id)
	ctx := context.Background()

	for _, score := range []int{-1, 6, 42} {
		if err := r.Rate(ctx, score); !errors.Is(err, ErrBadQuality) {
			t.Errorf("Rate(%d) = %v, want ErrBadQuality", score, err)
		}
	}

	sess, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Quality != sleep.Unrated {
		t.Errorf("stored quality = %d, want unrated", sess.Quality)
	}
	if r.NavigateRequested() {
		t.Error("NavigateRequested = true after rejected scores")
	}
}

// TestSignals_ResubscribeSeesRaisedSignal verifies a subscriber that
// arrives while navigation is pending observes the signal immediately,
// and one that arrives after DoneNavigating does not.
func TestSignals_ResubscribeSeesRaisedSignal(t *testing.T) {
	st := newTestStore(t)
	id := seedClosedSession(t, st)
	r := newTestRater(t, st, id)
	ctx := context.Background()

	if err := r.Rate(ctx, 5); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	late := r.Signals(1)
	select {
	case <-late:
	default:
		t.Fatal("late subscriber did not observe the pending signal")
	}
	r.Unsubscribe(late)

	r.DoneNavigating()
	after := r.Signals(1)
	select {
	case <-after:
		t.Error("subscriber observed a signal after DoneNavigating")
	default:
	}
}

// TestRater_Close verifies triggers fail fast and signal channels end
// once the holder is closed.
func TestRater_Close(t *testing.T) {
	st := newTestStore(t)
	id := seedClosedSession(t, st)
	r := newTestRater(t, st, id)
	ctx := context.Background()

	signals := r.Signals(1)

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if err := r.Rate(ctx, 3); !errors.Is(err, ErrClosed) {
		t.Errorf("Rate after Close = %v, want ErrClosed", err)
	}

	select {
	case _, ok := <-signals:
		if ok {
			t.Error("signal channel delivered a value instead of closing")
		}
	case <-time.After(time.Second):
		t.Error("signal channel not closed by Close")
	}

	sess, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Quality != sleep.Unrated {
		t.Errorf("stored quality = %d, want unrated", sess.Quality)
	}
}
