// Package store provides the sleep session record store.
//
// The store persists sessions in an embedded SQLite database and exposes a
// change feed so state holders, the daemon, and the dashboard can react to
// mutations without polling. Two backends are available:
//
//   - sqlite (default): ncruces/go-sqlite3, pure Go, WAL mode
//   - libsql: tursodatabase/go-libsql, embedded replica of a Turso primary
//
// Backends register themselves with the package registry; Open selects one
// by driver name. Both share the same SQL layer, so behavior is identical
// apart from where the bytes end up.
package store

import (
	"context"
	"errors"
	"log"

	"github.com/drowselabs/drowse/internal/sleep"
)

// ErrClosed is returned by every method once Close has been called.
var ErrClosed = errors.New("store is closed")

// Store is the persistence contract for sleep sessions.
//
// Lookup methods return (nil, nil) when no matching record exists; absence
// is an ordinary outcome, not an error. Mutations emit an Event to all
// subscribers after the write has been committed.
type Store interface {
	// Latest returns the most recently inserted session, or nil when the
	// store is empty. Callers decide what openness means; Latest does not
	// filter on it.
	Latest(ctx context.Context) (*sleep.Session, error)

	// Get returns the session with the given id, or nil when absent.
	Get(ctx context.Context, id int64) (*sleep.Session, error)

	// List returns all sessions, newest first.
	List(ctx context.Context) ([]*sleep.Session, error)

	// Insert stores a new session, assigns its ID, and returns it.
	Insert(ctx context.Context, s *sleep.Session) (int64, error)

	// Update replaces the stored row for s.ID with s's field values.
	Update(ctx context.Context, s *sleep.Session) error

	// Clear deletes every session.
	Clear(ctx context.Context) error

	// Subscribe returns a channel of change events with the given buffer.
	// Sends never block: when a subscriber falls behind, events are
	// dropped. Events are refresh hints, not deltas, so a dropped event is
	// covered by the one already sitting in the buffer.
	Subscribe(buffer int) <-chan Event

	// Unsubscribe removes a subscription and closes its channel.
	Unsubscribe(ch <-chan Event)

	// NotifyExternal emits an OpExternal event. The database file watcher
	// calls this when another process modified the database.
	NotifyExternal()

	// Close checkpoints and closes the database and closes all subscriber
	// channels. Idempotent.
	Close() error
}

// Syncer is implemented by backends that replicate to a remote primary.
// The daemon type-asserts for it to drive periodic syncs.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Options configures Open for all backends. Backends ignore fields that
// don't apply to them.
type Options struct {
	// Path is the local database file.
	Path string

	// CacheDir, when set, enables a wazero compilation cache for the
	// sqlite backend's WASM runtime so later opens skip recompilation.
	CacheDir string

	// URL is the libsql primary (libsql://... or https://...).
	URL string

	// AuthToken authenticates against the libsql primary.
	AuthToken string

	// Logger receives store diagnostics. Defaults to the std logger.
	Logger *log.Logger
}

func (o *Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}
