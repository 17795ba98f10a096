package cluster

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// clusterSnapshot is a point-in-time, race-free view of the fields
// HealthAggregator needs. The controller publishes a new snapshot after
// every mutation made under mu; HealthAggregator reads the snapshot
// without ever taking mu, matching spec §5 ("HealthAggregator reads
// without taking the mutex; momentary inconsistency is acceptable and will
// self-correct on the next poll") while staying race-free — an
// atomic-pointer swap stands in for Java's memory-safe-by-default object
// references, which Go's unsynchronized slice/map access does not give.
type clusterSnapshot struct {
	members       []*Member
	expectedState ExpectedState
}

// HealthAggregator is C6: periodically computes the boolean sensor
// cluster_one_and_all_members_up (spec §4.7).
type HealthAggregator struct {
	c      *Controller
	period time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthAggregator builds an aggregator evaluating c's health every
// period (default 5s).
func NewHealthAggregator(c *Controller, period time.Duration, logger *slog.Logger) *HealthAggregator {
	if period <= 0 {
		period = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthAggregator{c: c, period: period, logger: logger}
}

// Start begins the periodic evaluation loop; a no-op if already running.
func (h *HealthAggregator) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})
	go h.run(runCtx, h.done)
}

func (h *HealthAggregator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()
	h.evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.evaluate()
		}
	}
}

func (h *HealthAggregator) evaluate() {
	allUp, serviceUp := h.safeEvaluate()
	h.c.setSensor(SensorClusterOneAndAllMembersUp, allUp)
	h.c.setSensor(SensorServiceUp, serviceUp)
}

// safeEvaluate treats any panic during evaluation as a false reading for
// both sensors (spec §4.7: "exceptions during evaluation yield false").
func (h *HealthAggregator) safeEvaluate() (allUp, serviceUp bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("health aggregator evaluation failed", "recover", r)
			allUp, serviceUp = false, false
		}
	}()
	return h.c.evaluateAllMembersUp(), h.c.evaluateServiceUp()
}

// Stop halts the evaluation loop and waits for it to exit.
func (h *HealthAggregator) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	done := h.done
	h.cancel = nil
	h.done = nil
	h.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the evaluation loop is currently active.
func (h *HealthAggregator) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancel != nil
}
