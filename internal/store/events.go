package store

import "sync"

// Op identifies what kind of change an Event announces.
type Op int

const (
	// OpInsert means a new session row was inserted.
	OpInsert Op = iota
	// OpUpdate means an existing session row was rewritten.
	OpUpdate
	// OpClear means all sessions were deleted.
	OpClear
	// OpExternal means another process changed the database file; the
	// specific rows are unknown and consumers should re-query.
	OpExternal
)

// String returns a human-readable representation of the op.
func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpClear:
		return "clear"
	case OpExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Event announces a store change. ID is zero for OpClear and OpExternal.
type Event struct {
	Op Op
	ID int64
}

// feed fans change events out to subscribers. Sends are non-blocking so a
// stalled subscriber can never stall a store mutation.
type feed struct {
	mu     sync.Mutex
	subs   map[<-chan Event]chan Event
	closed bool
}

func newFeed() *feed {
	return &feed{subs: make(map[<-chan Event]chan Event)}
}

func (f *feed) subscribe(buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch
	}
	f.subs[ch] = ch
	return ch
}

func (f *feed) unsubscribe(ch <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bidi, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(bidi)
	}
}

func (f *feed) emit(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full; the pending event already covers
			// this change.
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}
