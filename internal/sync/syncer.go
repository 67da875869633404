package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/drowselabs/drowse/internal/store"
)

// syncer implements the Syncer interface over a store's optional sync
// capability.
type syncer struct {
	target store.Syncer
	logger *log.Logger
}

// New creates a Syncer for the given store.
//
// If the store implements store.Syncer, Sync pulls from its remote.
// Otherwise Sync is a logged no-op.
//
// If logger is nil, a default logger writing to stderr is used.
func New(st store.Store, logger *log.Logger) Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	s := &syncer{logger: logger}
	if target, ok := st.(store.Syncer); ok {
		s.target = target
	}
	return s
}

// Supported implements Syncer.Supported.
func (s *syncer) Supported() bool {
	return s.target != nil
}

// Sync implements Syncer.Sync.
func (s *syncer) Sync(ctx context.Context) (Result, error) {
	if s.target == nil {
		s.logger.Printf("Store has no remote; nothing to sync")
		return Result{}, nil
	}

	start := time.Now()
	if err := s.target.Sync(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to sync replica: %w", err)
	}
	elapsed := time.Since(start)

	s.logger.Printf("Replica sync complete in %v", elapsed.Round(time.Millisecond))
	return Result{Duration: elapsed}, nil
}
