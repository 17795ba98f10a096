package cluster

// Sensor names exposed to callers (spec §6).
const (
	SensorSubLocations              = "sub.locations"
	SensorFailedSubLocations        = "failed.sub.locations"
	SensorQuarantineGroup           = "quarantine.group"
	SensorClusterOneAndAllMembersUp = "cluster.one.and.all.members.up"
	SensorServiceUp                 = "service.up"
	SensorServiceStateActual        = "service.state.actual"
	SensorEntityQuarantined         = "entity.quarantined"
	SensorClusterMemberID           = "cluster.member.id"
	SensorCluster                   = "cluster"
	SensorClusterMember             = "cluster.member"
	SensorNextMemberID              = "next.member.id"
)

// Configuration keys (spec §6). All but ConfigMemberSpec and
// ConfigFirstMemberSpec are mirrored as Config struct fields in config.go;
// the member specs are passed as Options.MemberSpec and
// Options.FirstMemberSpec.
const (
	ConfigInitialSize              = "initialSize"
	ConfigInitialQuorumSize        = "initialQuorumSize"
	ConfigUpQuorumCheck            = "upQuorumCheck"
	ConfigMemberSpec               = "memberSpec"
	ConfigFirstMemberSpec          = "firstMemberSpec"
	ConfigRemovalStrategy          = "removalStrategy"
	ConfigZonePlacementStrategy    = "zonePlacementStrategy"
	ConfigZoneFailureDetector      = "zoneFailureDetector"
	ConfigEnableAvailabilityZones  = "enableAvailabilityZones"
	ConfigAvailabilityZoneNames    = "availabilityZoneNames"
	ConfigNumAvailabilityZones     = "numAvailabilityZones"
	ConfigQuarantineFailedEntities = "quarantineFailedEntities"
	ConfigCustomChildFlags         = "customChildFlags"
)
