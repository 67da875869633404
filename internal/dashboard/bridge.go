package dashboard

import (
	"log"
	"os"
	"sync"

	"github.com/drowselabs/drowse/internal/sleep"
	"github.com/drowselabs/drowse/internal/tracker"
)

// Bridge feeds tracker snapshots into the dashboard server. Each
// snapshot becomes a snapshot broadcast plus a recomputed stats
// broadcast.
type Bridge struct {
	server  *Server
	tracker *tracker.Tracker
	logger  *log.Logger

	snaps <-chan tracker.Snapshot
	wg    sync.WaitGroup
}

// NewBridge creates a bridge between a tracker and a dashboard server.
func NewBridge(srv *Server, tr *tracker.Tracker, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
	}
	return &Bridge{server: srv, tracker: tr, logger: logger}
}

// Start subscribes to the tracker and begins forwarding snapshots. It
// pushes the current state immediately so connected clients are not
// stale.
func (b *Bridge) Start() {
	b.snaps = b.tracker.Subscribe(8)

	b.publish(tracker.Snapshot{
		Current: b.tracker.Current(),
		History: b.tracker.History(),
	})

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for snap := range b.snaps {
			b.publish(snap)
		}
	}()
}

// Stop unsubscribes from the tracker and waits for the forwarder to
// exit.
func (b *Bridge) Stop() {
	if b.snaps == nil {
		return
	}
	b.tracker.Unsubscribe(b.snaps)
	b.wg.Wait()
}

func (b *Bridge) publish(snap tracker.Snapshot) {
	msg, err := NewSnapshotMessage(snap)
	if err != nil {
		b.logger.Printf("Failed to build snapshot message: %v", err)
		return
	}
	b.server.Broadcast(msg)

	stats, err := NewStatsMessage(sleep.Compute(snap.History))
	if err != nil {
		b.logger.Printf("Failed to build stats message: %v", err)
		return
	}
	b.server.Broadcast(stats)
}
