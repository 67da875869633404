package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tursodatabase/go-libsql"
)

func init() {
	Register("libsql", openLibSQL)
}

// replicaStore is a sqlStore over an embedded libsql replica. It implements
// Syncer so the daemon can push/pull frames against the Turso primary
// between the connector's own periodic syncs.
type replicaStore struct {
	*sqlStore
	connector *libsql.Connector
}

var _ Syncer = (*replicaStore)(nil)

func (r *replicaStore) Sync(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- r.connector.Sync() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to sync replica: %w", err)
		}
		// The primary may have shipped rows we have never seen.
		r.NotifyExternal()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *replicaStore) Close() error {
	err := r.sqlStore.Close()
	if cerr := r.connector.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close libsql connector: %w", cerr)
	}
	return err
}

// openLibSQL opens the Turso backend.
//
// With both Path and URL set it runs as an embedded replica: reads hit the
// local file, writes are forwarded, and Sync pulls new frames. With only a
// URL it talks straight to the remote database.
func openLibSQL(opts Options) (Store, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("libsql driver requires a primary URL")
	}

	if opts.Path == "" {
		conn, err := sql.Open("libsql", remoteURL(opts))
		if err != nil {
			return nil, fmt.Errorf("failed to open remote database: %w", err)
		}
		if err := conn.Ping(); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to ping remote database: %w", err)
		}
		return newSQLStore(conn, "", "libsql", opts.logger())
	}

	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	var connOpts []libsql.Option
	if opts.AuthToken != "" {
		connOpts = append(connOpts, libsql.WithAuthToken(opts.AuthToken))
	}

	connector, err := libsql.NewEmbeddedReplicaConnector(opts.Path, opts.URL, connOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded replica: %w", err)
	}

	conn := sql.OpenDB(connector)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		_ = connector.Close()
		return nil, fmt.Errorf("failed to ping replica: %w", err)
	}

	base, err := newSQLStore(conn, opts.Path, "libsql", opts.logger())
	if err != nil {
		_ = connector.Close()
		return nil, err
	}
	return &replicaStore{sqlStore: base, connector: connector}, nil
}

func remoteURL(opts Options) string {
	if opts.AuthToken == "" {
		return opts.URL
	}
	return opts.URL + "?authToken=" + opts.AuthToken
}
