package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDaemonConfigHasRootZone(t *testing.T) {
	cfg := defaultDaemonConfig()
	assert.Equal(t, "root", cfg.Root.ID)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "admin", cfg.AdminUsername)
}

func TestLoadDaemonConfigMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := loadDaemonConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultDaemonConfig(), cfg)
}

func TestLoadDaemonConfigOverridesListenAndZones(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daemon.yaml")
	contents := `
listen: ":9090"
root:
  id: us
  name: us-root
  addr: /ip4/127.0.0.1/tcp/4001
zones:
  - id: us-east
    name: us-east-zone
    addr: /ip4/127.0.0.1/tcp/4002
  - id: us-west
    name: us-west-zone
    addr: /ip4/127.0.0.1/tcp/4003
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := loadDaemonConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	require.Len(t, cfg.Zones, 2)
	assert.Equal(t, "us-east", cfg.Zones[0].ID)
}

func TestBuildLocationsWithoutZonesUsesRoot(t *testing.T) {
	cfg := defaultDaemonConfig()
	root, registry, locations, err := buildLocations(cfg)
	require.NoError(t, err)
	require.NotNil(t, registry)
	require.Len(t, locations, 1)
	assert.Same(t, root, locations[0])
}

func TestBuildLocationsWithZonesReturnsEachSubZone(t *testing.T) {
	cfg := defaultDaemonConfig()
	cfg.Zones = []zoneConfig{
		{ID: "z1", Name: "zone-one", Addr: "/ip4/127.0.0.1/tcp/5001"},
		{ID: "z2", Name: "zone-two", Addr: "/ip4/127.0.0.1/tcp/5002"},
	}

	_, _, locations, err := buildLocations(cfg)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "z1", locations[0].ID())
	assert.Equal(t, "z2", locations[1].ID())
}

func TestBuildLocationsRejectsInvalidZoneAddr(t *testing.T) {
	cfg := defaultDaemonConfig()
	cfg.Zones = []zoneConfig{{ID: "bad", Name: "bad-zone", Addr: "not-a-multiaddr"}}

	_, _, _, err := buildLocations(cfg)
	assert.Error(t, err)
}
