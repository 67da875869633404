package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"
)

func init() {
	Register("sqlite", openSQLite)
}

var cacheOnce sync.Once

// configureWazeroCache installs a compilation cache for the embedded SQLite
// WASM runtime. Compiling the module dominates first-connection latency;
// with a cache dir, subsequent CLI invocations reuse the compiled artifact.
// Must run before the first connection is opened, and only once per process.
func configureWazeroCache(dir string) {
	cacheOnce.Do(func() {
		cache, err := wazero.NewCompilationCacheWithDir(dir)
		if err != nil {
			// Falls back to in-memory compilation; slower, not wrong.
			return
		}
		sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
	})
}

// openSQLite opens the default embedded backend at opts.Path.
func openSQLite(opts Options) (Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("sqlite driver requires a database path")
	}

	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0755); err == nil {
			configureWazeroCache(opts.CacheDir)
		}
	}

	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newSQLStore(conn, opts.Path, "sqlite", opts.logger())
}
