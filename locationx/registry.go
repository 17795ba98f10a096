package locationx

import (
	"context"
	"fmt"
	"sync"

	"github.com/dynacluster/dynacluster/cluster"
)

// Registry is the default cluster.LocationResolver: it holds a fixed set
// of named zones per parent and enumerates them by explicit name list, by
// count, or in full. Grounded on the teacher's pkg/p2p/config.go
// NodeConfig.Listen (a list of named multiaddr endpoints) generalized into
// a name-addressable registry.
type Registry struct {
	mu    sync.RWMutex
	zones map[string][]*Zone // keyed by parent zone id
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{zones: make(map[string][]*Zone)}
}

// AddSubZones registers zs as the availability zones under parent.
func (r *Registry) AddSubZones(parent *Zone, zs ...*Zone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones[parent.ID()] = append(r.zones[parent.ID()], zs...)
}

// ResolveLocation implements cluster.LocationResolver: explicit wins when
// given, otherwise the cluster's existing location is returned unchanged.
func (r *Registry) ResolveLocation(ctx context.Context, cluster cluster.Location, explicit cluster.Location) (cluster.Location, error) {
	if explicit != nil {
		return explicit, nil
	}
	if cluster != nil {
		return cluster, nil
	}
	return nil, fmt.Errorf("locationx: no location to resolve")
}

// SubLocations implements cluster.LocationResolver. When names is
// non-empty, only the matching registered zones are returned, in the given
// order, and it is an error for a name to be unregistered. Otherwise, up
// to count zones are returned (all registered zones if count <= 0).
func (r *Registry) SubLocations(ctx context.Context, parent cluster.Location, names []string, count int) ([]cluster.Location, error) {
	if parent == nil {
		return nil, fmt.Errorf("locationx: parent location required to enumerate sub-locations")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.zones[parent.ID()]
	if len(names) > 0 {
		byName := make(map[string]*Zone, len(all))
		for _, z := range all {
			byName[z.Name()] = z
		}
		out := make([]cluster.Location, 0, len(names))
		for _, name := range names {
			z, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("locationx: no sub-location named %q under %q", name, parent.ID())
			}
			out = append(out, z)
		}
		return out, nil
	}

	if count <= 0 || count > len(all) {
		count = len(all)
	}
	out := make([]cluster.Location, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

var _ cluster.LocationResolver = (*Registry)(nil)
