package cluster

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAllocatorNextIsMonotonic(t *testing.T) {
	a := NewIDAllocator("c1", nil, nil)
	ctx := context.Background()
	require.NoError(t, a.EnsureInitialized(ctx))

	assert.Equal(t, int64(1), a.Next(ctx))
	assert.Equal(t, int64(2), a.Next(ctx))
	assert.Equal(t, int64(3), a.Next(ctx))
}

func TestIDAllocatorEnsureInitializedIsIdempotent(t *testing.T) {
	store := newFakeSensorStore()
	require.NoError(t, store.PutInt64(context.Background(), "c1", SensorNextMemberID, 41))

	a := NewIDAllocator("c1", store, nil)
	ctx := context.Background()
	require.NoError(t, a.EnsureInitialized(ctx))
	require.NoError(t, a.EnsureInitialized(ctx))

	assert.Equal(t, int64(42), a.Next(ctx))
}

func TestIDAllocatorPersistsAcrossRestart(t *testing.T) {
	store := newFakeSensorStore()
	ctx := context.Background()

	first := NewIDAllocator("c1", store, nil)
	require.NoError(t, first.EnsureInitialized(ctx))
	first.Next(ctx)
	first.Next(ctx)

	second := NewIDAllocator("c1", store, nil)
	require.NoError(t, second.EnsureInitialized(ctx))
	assert.Equal(t, int64(3), second.Next(ctx))
}

func TestIDAllocatorNoStoreIsSafe(t *testing.T) {
	a := NewIDAllocator("c1", nil, nil)
	ctx := context.Background()
	require.NoError(t, a.EnsureInitialized(ctx))
	assert.Equal(t, int64(1), a.Next(ctx))
}

type fakeSensorStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func newFakeSensorStore() *fakeSensorStore {
	return &fakeSensorStore{values: make(map[string]int64)}
}

func (s *fakeSensorStore) GetInt64(ctx context.Context, clusterID, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[clusterID+"\x00"+key]
	return v, ok, nil
}

func (s *fakeSensorStore) PutInt64(ctx context.Context, clusterID, key string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[clusterID+"\x00"+key] = value
	return nil
}

var _ SensorStore = (*fakeSensorStore)(nil)
