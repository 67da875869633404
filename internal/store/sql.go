package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/drowselabs/drowse/internal/sleep"
)

// schemaDDL creates the session table. Idempotent, applied at every open.
//
// Timestamps are stored as milliseconds since the Unix epoch so that the
// open-session invariant (start == end) survives round-trips exactly.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS sessions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	start_ms INTEGER NOT NULL,
	end_ms   INTEGER NOT NULL,
	quality  INTEGER NOT NULL DEFAULT -1
);

CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_ms DESC);
`

// sqlStore implements Store over a *sql.DB. Both backends produce one; only
// the way the connection is opened differs.
type sqlStore struct {
	conn   *sql.DB
	path   string
	driver string
	logger *log.Logger
	feed   *feed

	mu     sync.Mutex
	closed bool
}

var _ Store = (*sqlStore)(nil)

// newSQLStore applies pragmas, pool settings, and the schema, and wraps the
// connection. The caller has already opened and pinged conn.
func newSQLStore(conn *sql.DB, path, driver string, logger *log.Logger) (*sqlStore, error) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &sqlStore{
		conn:   conn,
		path:   path,
		driver: driver,
		logger: logger,
		feed:   newFeed(),
	}

	// Pragmas only apply to a local database file; a remote libsql
	// connection manages its own journal.
	if path != "" {
		// WAL keeps readers unblocked while the CLI or daemon writes.
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if _, err := conn.Exec(schemaDDL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Path returns the local database file backing this store.
func (s *sqlStore) Path() string {
	return s.path
}

func (s *sqlStore) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *sqlStore) Latest(ctx context.Context) (*sleep.Session, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	row := s.conn.QueryRowContext(ctx, `
		SELECT id, start_ms, end_ms, quality
		FROM sessions
		ORDER BY id DESC
		LIMIT 1`)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest session: %w", err)
	}
	return sess, nil
}

func (s *sqlStore) Get(ctx context.Context, id int64) (*sleep.Session, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	row := s.conn.QueryRowContext(ctx, `
		SELECT id, start_ms, end_ms, quality
		FROM sessions
		WHERE id = ?`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session %d: %w", id, err)
	}
	return sess, nil
}

func (s *sqlStore) List(ctx context.Context) ([]*sleep.Session, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, start_ms, end_ms, quality
		FROM sessions
		ORDER BY start_ms DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func (s *sqlStore) Insert(ctx context.Context, sess *sleep.Session) (int64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	if err := sess.Validate(); err != nil {
		return 0, fmt.Errorf("invalid session: %w", err)
	}

	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO sessions (start_ms, end_ms, quality)
		VALUES (?, ?, ?)`,
		sess.Start.UnixMilli(),
		sess.End.UnixMilli(),
		sess.Quality,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted session id: %w", err)
	}
	sess.ID = id

	s.feed.emit(Event{Op: OpInsert, ID: id})
	return id, nil
}

func (s *sqlStore) Update(ctx context.Context, sess *sleep.Session) error {
	if err := s.guard(); err != nil {
		return err
	}
	if sess.ID <= 0 {
		return fmt.Errorf("cannot update session without id")
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("invalid session: %w", err)
	}

	res, err := s.conn.ExecContext(ctx, `
		UPDATE sessions
		SET start_ms = ?, end_ms = ?, quality = ?
		WHERE id = ?`,
		sess.Start.UnixMilli(),
		sess.End.UnixMilli(),
		sess.Quality,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session %d: %w", sess.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		// Row vanished between Get and Update; nothing to announce.
		return nil
	}

	s.feed.emit(Event{Op: OpUpdate, ID: sess.ID})
	return nil
}

func (s *sqlStore) Clear(ctx context.Context) error {
	if err := s.guard(); err != nil {
		return err
	}

	if _, err := s.conn.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	s.feed.emit(Event{Op: OpClear})
	return nil
}

func (s *sqlStore) Subscribe(buffer int) <-chan Event {
	return s.feed.subscribe(buffer)
}

func (s *sqlStore) Unsubscribe(ch <-chan Event) {
	s.feed.unsubscribe(ch)
}

func (s *sqlStore) NotifyExternal() {
	s.feed.emit(Event{Op: OpExternal})
}

// Close checkpoints the WAL, closes the connection, and closes all
// subscriber channels. Safe to call more than once.
func (s *sqlStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.feed.close()

	if s.path != "" {
		if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			s.logger.Printf("warning: failed to checkpoint WAL: %v", err)
		}
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*sleep.Session, error) {
	var (
		sess           sleep.Session
		startMs, endMs int64
	)
	if err := row.Scan(&sess.ID, &startMs, &endMs, &sess.Quality); err != nil {
		return nil, err
	}
	sess.Start = time.UnixMilli(startMs)
	sess.End = time.UnixMilli(endMs)
	return &sess, nil
}

func scanSessions(rows *sql.Rows) ([]*sleep.Session, error) {
	var sessions []*sleep.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}
