package cluster

import "context"

// EntityManager is the entity/management-layer contract the controller
// consumes: creation, parent linkage, registration, and sensor/effector
// access on arbitrary child entities. The entity package provides the
// default in-process implementation.
type EntityManager interface {
	Create(ctx context.Context, spec MemberSpec, flags map[string]any) (string, error)
	HasParent(ctx context.Context, entityID string) bool
	SetParent(ctx context.Context, entityID, parentID string) error
	Manage(ctx context.Context, entityID string) error
	Unmanage(ctx context.Context, entityID string) error
	SetSensor(ctx context.Context, entityID, name string, value any) error
	GetSensor(ctx context.Context, entityID, name string) (any, bool)
	InvokeEffector(ctx context.Context, entityID, name string, args map[string]any) error
}

// LocationResolver is the location-layer contract: resolve the cluster's
// single location and enumerate availability-zone sub-locations. The
// locationx package provides the default implementation.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, cluster Location, explicit Location) (Location, error)
	SubLocations(ctx context.Context, parent Location, names []string, count int) ([]Location, error)
}

// Location is the minimal location abstraction the controller needs: a
// single-parent chain plus an optional capability set, used to walk up to
// an availability zone or recognize a machine-provisioning location.
type Location interface {
	ID() string
	Name() string
	Parent() Location
	Capabilities() []string
}

// Policy is a policy object that may invoke the controller; the controller
// suspends every attached policy during stop and resumes them once start
// settles.
type Policy interface {
	Suspend()
	Resume()
}

// EventSink receives cluster lifecycle and sensor-change events. adminapi's
// websocket hub is the default implementation.
type EventSink interface {
	Emit(clusterID, sensor string, value any)
}

// SensorStore is the sensor/config storage contract used to persist
// next_member_id across restarts (invariant 3). The sensorstore package
// provides Postgres/Redis and in-memory implementations.
type SensorStore interface {
	GetInt64(ctx context.Context, clusterID, key string) (int64, bool, error)
	PutInt64(ctx context.Context, clusterID, key string, value int64) error
}

// hasCapability reports whether loc carries the named capability.
func hasCapability(loc Location, name string) bool {
	if loc == nil {
		return false
	}
	for _, c := range loc.Capabilities() {
		if c == name {
			return true
		}
	}
	return false
}

// MachineProvisioningCapability marks a location that can provision raw
// machines, used by replacement location inference (spec §4.1.1).
const MachineProvisioningCapability = "machine-provisioning"

// AvailabilityZoneCapability marks a location as a usable availability zone.
const AvailabilityZoneCapability = "availability-zone"
