// Package locationx provides the default implementation of the
// location-layer contract the cluster controller treats as an external
// collaborator (spec §6): a single parent location plus availability-zone
// sub-locations, each addressed by a multiaddr the way the teacher's P2P
// layer addresses real peers (pkg/p2p/node.go, pkg/p2p/config.go).
package locationx

import (
	"fmt"

	"github.com/multiformats/go-multiaddr"

	"github.com/dynacluster/dynacluster/cluster"
)

// Zone is a cluster.Location backed by a multiaddr network address and an
// optional parent, used both for the cluster's root location and for its
// availability-zone sub-locations.
type Zone struct {
	id           string
	name         string
	addr         multiaddr.Multiaddr
	parent       *Zone
	capabilities []string
}

// NewZone builds a root zone (no parent) listening on addr, which must be a
// valid multiaddr string such as "/ip4/0.0.0.0/tcp/0".
func NewZone(id, name, addr string, capabilities ...string) (*Zone, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return nil, fmt.Errorf("locationx: invalid address %q: %w", addr, err)
	}
	return &Zone{id: id, name: name, addr: ma, capabilities: capabilities}, nil
}

// NewSubZone builds a zone parented to parent. The zone always carries the
// availability zone capability and no other.
func NewSubZone(parent *Zone, id, name, addr string) (*Zone, error) {
	z, err := NewZone(id, name, addr, cluster.AvailabilityZoneCapability)
	if err != nil {
		return nil, err
	}
	z.parent = parent
	return z, nil
}

// ID implements cluster.Location.
func (z *Zone) ID() string { return z.id }

// Name implements cluster.Location.
func (z *Zone) Name() string { return z.name }

// Parent implements cluster.Location.
func (z *Zone) Parent() cluster.Location {
	if z.parent == nil {
		return nil
	}
	return z.parent
}

// Capabilities implements cluster.Location.
func (z *Zone) Capabilities() []string { return z.capabilities }

// Multiaddr returns the zone's network address.
func (z *Zone) Multiaddr() multiaddr.Multiaddr { return z.addr }

var _ cluster.Location = (*Zone)(nil)
