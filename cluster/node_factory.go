package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NodeFactory is C8: creates, parents, and registers a single new member
// (spec §4.8). Grounded on the teacher's NewBasicNode constructor-and-
// register shape in pkg/p2p/node.go.
type NodeFactory struct {
	entities EntityManager
	idAlloc  *IDAllocator
	logger   *slog.Logger
}

// NewNodeFactory builds a factory that mints members through entities,
// allocating ids from idAlloc.
func NewNodeFactory(entities EntityManager, idAlloc *IDAllocator, logger *slog.Logger) *NodeFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeFactory{entities: entities, idAlloc: idAlloc, logger: logger}
}

// AddNode mints a member in loc: ensures the id allocator is initialized,
// builds the child's flag map, picks the member spec, creates the child,
// parents it to the cluster if it has no parent, marks its cluster_member
// and cluster sensors, and registers it with the management layer.
func (f *NodeFactory) AddNode(ctx context.Context, c *Controller, loc Location, extraFlags map[string]any) (*Member, error) {
	if err := f.idAlloc.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	flags := make(map[string]any, len(c.customChildFlags)+len(extraFlags)+1)
	for k, v := range c.customChildFlags {
		flags[k] = v
	}
	for k, v := range extraFlags {
		flags[k] = v
	}
	memberID := f.idAlloc.Next(ctx)
	flags[SensorClusterMemberID] = memberID

	spec := c.memberSpecFor(len(c.members) == 0)
	if spec == nil {
		return nil, NewError(KindNoMemberSpec, fmt.Errorf("no member spec configured for cluster %q", c.id))
	}

	entityID, err := f.entities.Create(ctx, *spec, flags)
	if err != nil {
		return nil, fmt.Errorf("creating member: %w", err)
	}

	if !f.entities.HasParent(ctx, entityID) {
		if err := f.entities.SetParent(ctx, entityID, c.id); err != nil {
			return nil, fmt.Errorf("parenting member %s: %w", entityID, err)
		}
	}

	if err := f.entities.SetSensor(ctx, entityID, SensorClusterMember, true); err != nil {
		return nil, fmt.Errorf("marking member %s: %w", entityID, err)
	}
	if err := f.entities.SetSensor(ctx, entityID, SensorCluster, c.id); err != nil {
		return nil, fmt.Errorf("marking member %s: %w", entityID, err)
	}

	if err := f.entities.Manage(ctx, entityID); err != nil {
		return nil, fmt.Errorf("registering member %s: %w", entityID, err)
	}

	member := &Member{
		ID:              entityID,
		ClusterMemberID: memberID,
		CreationTime:    time.Now(),
		Locations:       []Location{loc},
		IsStartable:     spec.Startable,
		serviceUp:       Unknown,
	}
	return member, nil
}
