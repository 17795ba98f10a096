package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynacluster/dynacluster/cluster"
)

func TestInMemoryManagerLifecycle(t *testing.T) {
	m := NewInMemoryManager()
	ctx := context.Background()

	id, err := m.Create(ctx, cluster.MemberSpec{Name: "worker", Startable: true}, map[string]any{"cluster.member.id": int64(1)})
	require.NoError(t, err)
	assert.False(t, m.HasParent(ctx, id))

	require.NoError(t, m.SetParent(ctx, id, "cluster-1"))
	assert.True(t, m.HasParent(ctx, id))

	require.NoError(t, m.SetSensor(ctx, id, "cluster.member", true))
	v, ok := m.GetSensor(ctx, id, "cluster.member")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	require.NoError(t, m.Manage(ctx, id))
	assert.Equal(t, 1, m.EntityCount())

	var invoked bool
	m.RegisterEffector("start", func(ctx context.Context, entityID string, args map[string]any) error {
		invoked = true
		return nil
	})
	require.NoError(t, m.InvokeEffector(ctx, id, "start", nil))
	assert.True(t, invoked)

	require.NoError(t, m.Unmanage(ctx, id))
	assert.Equal(t, 0, m.EntityCount())
}

func TestInMemoryManagerUnknownEntity(t *testing.T) {
	m := NewInMemoryManager()
	ctx := context.Background()

	err := m.SetParent(ctx, "missing", "cluster-1")
	assert.Error(t, err)

	err = m.InvokeEffector(ctx, "missing", "start", nil)
	assert.Error(t, err)
}
