// Package sensorstore provides the default implementations of the
// persistence-layer contract (spec §6, cluster.SensorStore) used to survive
// the cluster's next-member-id counter across controller restarts.
package sensorstore

import (
	"context"
	"sync"

	"github.com/dynacluster/dynacluster/cluster"
)

// Memory is an in-process cluster.SensorStore, suitable for tests and for
// controllers that do not need the counter to survive a restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string]int64
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]int64)}
}

func key(clusterID, k string) string { return clusterID + "\x00" + k }

// GetInt64 implements cluster.SensorStore.
func (m *Memory) GetInt64(ctx context.Context, clusterID, k string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key(clusterID, k)]
	return v, ok, nil
}

// PutInt64 implements cluster.SensorStore.
func (m *Memory) PutInt64(ctx context.Context, clusterID, k string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key(clusterID, k)] = value
	return nil
}

var _ cluster.SensorStore = (*Memory)(nil)
