package locationx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynacluster/dynacluster/cluster"
)

func TestNewZoneParsesMultiaddr(t *testing.T) {
	z, err := NewZone("root", "root-zone", "/ip4/0.0.0.0/tcp/4001")
	require.NoError(t, err)
	assert.Equal(t, "root", z.ID())
	assert.Equal(t, "root-zone", z.Name())
	assert.Nil(t, z.Parent())
	assert.Empty(t, z.Capabilities())
}

func TestNewZoneRejectsInvalidAddress(t *testing.T) {
	_, err := NewZone("root", "root-zone", "not-a-multiaddr")
	assert.Error(t, err)
}

func TestNewSubZoneHasAvailabilityZoneCapabilityAndParent(t *testing.T) {
	root, err := NewZone("root", "root-zone", "/ip4/0.0.0.0/tcp/4001")
	require.NoError(t, err)

	az, err := NewSubZone(root, "az-1", "us-east-1a", "/ip4/0.0.0.0/tcp/4002")
	require.NoError(t, err)

	assert.Contains(t, az.Capabilities(), cluster.AvailabilityZoneCapability)
	require.NotNil(t, az.Parent())
	assert.Equal(t, "root", az.Parent().ID())
}

func TestZoneParentReturnsTrueNilInterface(t *testing.T) {
	root, err := NewZone("root", "root-zone", "/ip4/0.0.0.0/tcp/4001")
	require.NoError(t, err)

	var loc cluster.Location = root
	assert.Nil(t, loc.Parent())
	assert.True(t, loc.Parent() == nil)
}
