package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// IDAllocator is C1: a monotonic integer id generator per cluster, stored
// as a sensor so restarts preserve uniqueness (invariant 3). Only the
// one-time initialization takes a mutex; fetch-and-increment is lock-free
// (spec §5).
type IDAllocator struct {
	mu          sync.Mutex
	initialized bool

	counter   atomic.Int64
	store     SensorStore
	clusterID string
	logger    *slog.Logger
}

// NewIDAllocator builds an allocator backed by store, which may be nil for
// an in-memory-only cluster.
func NewIDAllocator(clusterID string, store SensorStore, logger *slog.Logger) *IDAllocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &IDAllocator{store: store, clusterID: clusterID, logger: logger}
}

// EnsureInitialized loads the last-persisted counter value on first call
// and is a no-op on every subsequent call (idempotent, per spec §4.2).
func (a *IDAllocator) EnsureInitialized(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}
	if a.store != nil {
		v, ok, err := a.store.GetInt64(ctx, a.clusterID, SensorNextMemberID)
		if err != nil {
			return fmt.Errorf("loading %s: %w", SensorNextMemberID, err)
		}
		if ok {
			a.counter.Store(v)
		}
	}
	a.initialized = true
	return nil
}

// Next fetches-and-increments the counter and best-effort persists it. A
// persistence failure is logged, not returned: allocation must not block on
// a storage hiccup.
func (a *IDAllocator) Next(ctx context.Context) int64 {
	id := a.counter.Add(1)
	if a.store != nil {
		if err := a.store.PutInt64(ctx, a.clusterID, SensorNextMemberID, id); err != nil {
			a.logger.Error("failed to persist next_member_id", "cluster", a.clusterID, "error", err)
		}
	}
	return id
}
