package session

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// StoreGuard wraps a Store and makes both operations non-fatal: if the
// underlying store fails, SaveState swallows the error and LoadState
// reports a cold start instead of propagating the failure. This keeps a
// session running when the persistence backend is temporarily unavailable
// (e.g. Redis restart, network partition). IsDegraded reports whether the
// most recent operation failed.
//
// StoreGuard implements Store.
//
// All methods are safe for concurrent use.
type StoreGuard struct {
	store    Store
	degraded atomic.Bool
}

// NewStoreGuard wraps store so its failures never propagate to callers.
func NewStoreGuard(store Store) *StoreGuard {
	return &StoreGuard{store: store}
}

// SaveState attempts to persist snapshot. On failure the error is logged
// and swallowed; the guard is marked degraded.
func (sg *StoreGuard) SaveState(ctx context.Context, sessionID string, snapshot []byte) error {
	if err := sg.store.SaveState(ctx, sessionID, snapshot); err != nil {
		sg.degraded.Store(true)
		slog.WarnContext(ctx, "session store guard: SaveState failed, swallowing error",
			"session_id", sessionID, "error", err)
		return nil
	}
	sg.degraded.Store(false)
	return nil
}

// LoadState attempts to read sessionID's snapshot. On failure it reports a
// cold start (found=false) instead of propagating the error.
func (sg *StoreGuard) LoadState(ctx context.Context, sessionID string) ([]byte, bool, error) {
	b, ok, err := sg.store.LoadState(ctx, sessionID)
	if err != nil {
		sg.degraded.Store(true)
		slog.WarnContext(ctx, "session store guard: LoadState failed, treating as cold start",
			"session_id", sessionID, "error", err)
		return nil, false, nil
	}
	sg.degraded.Store(false)
	return b, ok, nil
}

// IsDegraded reports whether the store is currently operating in degraded
// mode.
func (sg *StoreGuard) IsDegraded() bool {
	return sg.degraded.Load()
}

// Compile-time check that StoreGuard satisfies Store.
var _ Store = (*StoreGuard)(nil)
