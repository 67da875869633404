// Package daemon provides the background process that keeps a drowse
// data directory live.
//
// The daemon:
//  1. Watches the database file for writes from other processes
//  2. Periodically pulls replica changes when the store syncs
//  3. Serves the WebSocket dashboard
//  4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/drowselabs/drowse/internal/dashboard"
	"github.com/drowselabs/drowse/internal/store"
	drowsync "github.com/drowselabs/drowse/internal/sync"
	"github.com/drowselabs/drowse/internal/tracker"
	"github.com/drowselabs/drowse/internal/version"
	"github.com/drowselabs/drowse/internal/watch"
)

// Config holds configuration for the daemon.
type Config struct {
	// DataDir holds the lock and status files.
	DataDir string

	// DBPath is the database file to watch. Empty disables watching,
	// for remote-only stores.
	DBPath string

	// Addr is the dashboard listen address.
	Addr string

	// SyncInterval is how often to pull replica changes. Ignored when
	// the store cannot sync.
	SyncInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger

	// Clock drives the sync ticker. Tests inject a fake.
	Clock clockwork.Clock
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:8080",
		SyncInterval: 5 * time.Minute,
		Logger:       log.New(os.Stderr, "[daemon] ", log.LstdFlags),
		Clock:        clockwork.NewRealClock(),
	}
}

// Daemon orchestrates watching, syncing, and the dashboard.
type Daemon struct {
	store   store.Store
	tracker *tracker.Tracker
	config  *Config

	watcher *watch.Watcher
	syncer  drowsync.Syncer
	server  *dashboard.Server
	bridge  *dashboard.Bridge
	lock    *Lock

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once
}

// New creates a Daemon over an open store and its tracker.
func New(st store.Store, tr *tracker.Tracker, config *Config) (*Daemon, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if tr == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.SyncInterval <= 0 {
		config.SyncInterval = DefaultConfig().SyncInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		store:   st,
		tracker: tr,
		config:  config,
		syncer:  drowsync.New(st, config.Logger),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon will:
//  1. Take the data directory lock and record its status
//  2. Start the dashboard server
//  3. Watch the database file and forward external changes
//  4. Periodically pull replica changes
//
// This blocks until ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	lock, err := AcquireLock(d.config.DataDir)
	if err != nil {
		return err
	}
	d.lock = lock

	// Settle the tracker's initial load before anything observes it.
	if err := d.tracker.Sync(ctx); err != nil {
		d.teardown()
		return fmt.Errorf("initial refresh failed: %w", err)
	}

	d.server = dashboard.NewServer(&dashboard.Config{
		Addr:   d.config.Addr,
		Logger: d.config.Logger,
	})
	if err := d.server.Start(); err != nil {
		d.teardown()
		return err
	}
	d.bridge = dashboard.NewBridge(d.server, d.tracker, d.config.Logger)
	d.bridge.Start()

	if d.config.DBPath != "" {
		watcher, err := watch.New(d.config.DBPath, d.config.Logger)
		if err != nil {
			d.teardown()
			return err
		}
		if err := watcher.Start(); err != nil {
			d.teardown()
			return err
		}
		d.watcher = watcher
	}

	status := Status{
		PID:       os.Getpid(),
		Version:   version.Version,
		Addr:      d.server.GetAddr(),
		StartedAt: time.Now(),
	}
	if err := WriteStatus(d.config.DataDir, status); err != nil {
		d.teardown()
		return err
	}

	// Setup is complete. Nothing past this point fails, so the loops
	// can safely capture their collaborators.
	if d.watcher != nil {
		d.wg.Add(1)
		go d.watchLoop(d.watcher)
	}
	if d.syncer.Supported() {
		d.wg.Add(1)
		go d.syncLoop(d.server)
	}

	d.config.Logger.Printf("Daemon ready (pid %d, dashboard http://%s)", status.PID, status.Addr)

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.stopOnce.Do(func() {
		d.config.Logger.Println("Stopping daemon")

		d.cancel()
		d.wg.Wait()
		d.teardown()

		if err := RemoveStatus(d.config.DataDir); err != nil {
			d.config.Logger.Printf("Error removing status file: %v", err)
		}

		d.config.Logger.Println("Daemon stopped")
	})
	return nil
}

// teardown releases everything Start set up so far. Safe on partial
// initialization.
func (d *Daemon) teardown() {
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.config.Logger.Printf("Error stopping watcher: %v", err)
		}
		d.watcher = nil
	}
	if d.bridge != nil {
		d.bridge.Stop()
		d.bridge = nil
	}
	if d.server != nil {
		if err := d.server.Stop(); err != nil {
			d.config.Logger.Printf("Error stopping dashboard: %v", err)
		}
		d.server = nil
	}
	if d.lock != nil {
		if err := d.lock.Release(); err != nil {
			d.config.Logger.Printf("Error releasing lock: %v", err)
		}
		d.lock = nil
	}
}

// watchLoop forwards file change notifications into the store's
// subscription feed.
func (d *Daemon) watchLoop(watcher *watch.Watcher) {
	defer d.wg.Done()

	changes := watcher.Changes()
	errs := watcher.Errors()

	for changes != nil || errs != nil {
		select {
		case <-d.ctx.Done():
			return

		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			d.config.Logger.Println("Database changed on disk")
			d.store.NotifyExternal()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// syncLoop periodically pulls replica changes.
func (d *Daemon) syncLoop(server *dashboard.Server) {
	defer d.wg.Done()

	ticker := d.config.Clock.NewTicker(d.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.Chan():
			result, err := d.syncer.Sync(d.ctx)
			if err != nil {
				d.config.Logger.Printf("Error syncing replica: %v", err)
				continue
			}
			if msg, err := dashboard.NewSyncCompleteMessage(result.Duration); err == nil {
				server.Broadcast(msg)
			}
		}
	}
}
