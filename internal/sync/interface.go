// Package sync coordinates replica synchronization for stores that
// support it.
//
// The libsql backend keeps a local embedded replica of a remote
// database and pulls remote changes on demand. The sqlite backend has
// nothing to pull from. This package hides that difference so the CLI
// and the daemon can request a sync without caring which backend is
// configured.
package sync

import (
	"context"
	"time"
)

// Syncer pulls remote changes into the local store.
//
// Implementations are resilient to being asked when there is nothing
// to do: a store without a remote simply reports an unsupported sync
// and succeeds.
type Syncer interface {
	// Sync pulls the latest remote state into the local store.
	//
	// For an embedded replica this contacts the remote database and
	// applies new frames locally. Change notifications fire through
	// the store's subscription feed, so state holders refresh on
	// their own.
	//
	// Returns the result with timing information, or an error if the
	// pull fails. A store that cannot sync returns a zero Result and
	// no error.
	Sync(ctx context.Context) (Result, error)

	// Supported reports whether the underlying store can sync at all.
	Supported() bool
}

// Result describes a completed sync.
type Result struct {
	// Duration is how long the pull took. Zero when the store does
	// not sync.
	Duration time.Duration
}
