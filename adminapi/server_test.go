package adminapi

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynacluster/dynacluster/cluster"
	"github.com/dynacluster/dynacluster/entity"
	"github.com/dynacluster/dynacluster/locationx"
)

func newTestController(t *testing.T) *cluster.Controller {
	t.Helper()
	root, err := locationx.NewZone("root", "root-zone", "/ip4/0.0.0.0/tcp/4001")
	require.NoError(t, err)

	c, err := cluster.NewController(cluster.Options{
		ID:       "cluster-test",
		Location: root,
		Entities: entity.NewInMemoryManager(),
		Config:   cluster.DefaultConfig(),
		Logger:   slog.Default(),
	})
	require.NoError(t, err)
	return c
}

func TestServerAuthenticateRoundTrips(t *testing.T) {
	s, err := NewServer(newTestController(t), Options{Listen: ":0"})
	require.NoError(t, err)

	require.NoError(t, s.RegisterCredential("alice", "s3cret!", RoleAdmin))

	role, ok := s.authenticate("alice", "s3cret!")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = s.authenticate("alice", "wrong")
	assert.False(t, ok)

	_, ok = s.authenticate("unknown", "whatever")
	assert.False(t, ok)
}

func TestServerEventSinkIsHub(t *testing.T) {
	s, err := NewServer(newTestController(t), Options{Listen: ":0"})
	require.NoError(t, err)
	assert.Same(t, s.hub, s.EventSink())
}

func TestServerStopWithoutStartIsSafe(t *testing.T) {
	s, err := NewServer(newTestController(t), Options{Listen: ":0"})
	require.NoError(t, err)
	assert.NoError(t, s.Stop(context.Background()))
}
