// Package watch provides file system watching for the drowse database.
//
// Other processes (a second CLI invocation, a libsql replica pull)
// write to the same database file. The watcher notices those writes and
// emits debounced change notifications so a running process can refresh
// its view without polling.
package watch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the bursts of events a single SQLite commit
// produces across the main file, the WAL, and the shared memory index.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches the directory holding the database file and reports
// when the database changes on disk. It uses fsnotify for cross-platform
// file system event monitoring.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	debounce time.Duration

	dbPath  string
	targets map[string]bool

	changes chan struct{}
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
	dirty   bool
}

// New creates a Watcher for the database at dbPath. The watcher must be
// started with Start before it emits anything.
func New(dbPath string, logger *log.Logger) (*Watcher, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// SQLite spreads a commit across the main file and its WAL
	// sidecars, and recreates the sidecars freely. Watching the parent
	// directory and filtering by name survives that churn.
	base := filepath.Base(dbPath)
	return &Watcher{
		watcher:  fsw,
		logger:   logger,
		debounce: DefaultDebounce,
		dbPath:   dbPath,
		targets: map[string]bool{
			base:          true,
			base + "-wal": true,
			base + "-shm": true,
		},
		changes: make(chan struct{}, 1),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the database's directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	dir := filepath.Dir(w.dbPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(2)
	go w.processEvents()
	go w.flushChanges()

	return nil
}

// Stop stops watching and cleans up resources. It blocks until the
// event processing goroutines have exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	// Closing the underlying watcher unblocks the event loop.
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.changes)
	close(w.errors)

	return nil
}

// Changes returns the channel that emits a value each time the database
// changed on disk, after debouncing. The channel is closed when the
// watcher is stopped.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors returns the channel that emits watcher errors. The channel is
// closed when the watcher is stopped.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning reports whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// processEvents marks the database dirty for every relevant fsnotify
// event.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.mu.Lock()
			w.dirty = true
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// flushChanges periodically collapses the dirty flag into a single
// change notification.
func (w *Watcher) flushChanges() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case <-ticker.C:
			w.mu.Lock()
			dirty := w.dirty
			w.dirty = false
			w.mu.Unlock()
			if !dirty {
				continue
			}

			select {
			case w.changes <- struct{}{}:
			default:
				// A pending notification already covers this change.
			}
		}
	}
}

// relevant reports whether the event touches the database file or one
// of its WAL sidecars.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.targets[filepath.Base(event.Name)]
}
