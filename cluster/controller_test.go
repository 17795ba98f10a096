package cluster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLocation is a minimal cluster.Location for tests that don't need real
// multiaddr parsing (locationx is exercised separately).
type fakeLocation struct {
	id, name string
	parent   Location
	caps     []string
}

func (l *fakeLocation) ID() string             { return l.id }
func (l *fakeLocation) Name() string           { return l.name }
func (l *fakeLocation) Parent() Location       { return l.parent }
func (l *fakeLocation) Capabilities() []string { return l.caps }

// fakeEntities is a hand-rolled in-memory EntityManager double, grounded on
// the teacher's own MockNetworkManager/MockDatabase test-double convention:
// ids are assigned in call order ("m0", "m1", ...) so a test can predict
// which entity id corresponds to which addInEachLocation slot without
// depending on a real id scheme.
type fakeEntities struct {
	mu       sync.Mutex
	next     int
	parents  map[string]string
	managed  map[string]bool
	sensors  map[string]map[string]any
	startErr map[string]error
	stopErr  map[string]error
}

func newFakeEntities() *fakeEntities {
	return &fakeEntities{
		parents: make(map[string]string),
		managed: make(map[string]bool),
		sensors: make(map[string]map[string]any),
	}
}

func (f *fakeEntities) Create(ctx context.Context, spec MemberSpec, flags map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("m%d", f.next)
	f.next++
	s := make(map[string]any, len(flags))
	for k, v := range flags {
		s[k] = v
	}
	f.sensors[id] = s
	return id, nil
}

func (f *fakeEntities) HasParent(ctx context.Context, entityID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.parents[entityID]
	return ok
}

func (f *fakeEntities) SetParent(ctx context.Context, entityID, parentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parents[entityID] = parentID
	return nil
}

func (f *fakeEntities) Manage(ctx context.Context, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.managed[entityID] = true
	return nil
}

func (f *fakeEntities) Unmanage(ctx context.Context, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.managed, entityID)
	return nil
}

func (f *fakeEntities) SetSensor(ctx context.Context, entityID, name string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sensors[entityID] == nil {
		f.sensors[entityID] = make(map[string]any)
	}
	f.sensors[entityID][name] = value
	return nil
}

func (f *fakeEntities) GetSensor(ctx context.Context, entityID, name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.sensors[entityID][name]
	return v, ok
}

func (f *fakeEntities) InvokeEffector(ctx context.Context, entityID, name string, args map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch name {
	case "start":
		return f.startErr[entityID]
	case "stop":
		return f.stopErr[entityID]
	}
	return nil
}

func (f *fakeEntities) failStart(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr == nil {
		f.startErr = make(map[string]error)
	}
	f.startErr[id] = err
}

func (f *fakeEntities) isManaged(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.managed[id]
}

var _ EntityManager = (*fakeEntities)(nil)

func testMemberSpec() *MemberSpec {
	return &MemberSpec{Name: "worker", Startable: true}
}

func testController(t *testing.T, entities EntityManager, cfg Config) *Controller {
	t.Helper()
	root := &fakeLocation{id: "root", name: "root"}
	c, err := NewController(Options{
		ID:         "test-cluster",
		Location:   root,
		Entities:   entities,
		Config:     cfg,
		MemberSpec: testMemberSpec(),
	})
	require.NoError(t, err)
	return c
}

func TestControllerStartReachesInitialSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 3
	entities := newFakeEntities()
	c := testController(t, entities, cfg)

	err := c.Start(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c.CurrentSize())
	assert.Equal(t, StateRunning, c.ExpectedState())
}

func TestControllerStartQuorumNotReached(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 3
	cfg.InitialQuorumSize = 3
	entities := newFakeEntities()

	// Fail the first two starts; entity ids are assigned in call order so
	// the first two members minted during the initial grow are m0 and m1.
	entities.failStart("m0", errors.New("boom"))
	entities.failStart("m1", errors.New("boom"))

	c := testController(t, entities, cfg)
	err := c.Start(context.Background(), nil)

	require.Error(t, err)
	var clusterErr *Error
	require.ErrorAs(t, err, &clusterErr)
	assert.Equal(t, KindQuorumNotReached, clusterErr.Kind)
	assert.Equal(t, 1, c.CurrentSize())
}

func TestControllerStartBelowInitialSizeButAtQuorumSucceeds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 3
	cfg.InitialQuorumSize = 1
	entities := newFakeEntities()
	entities.failStart("m0", errors.New("boom"))
	entities.failStart("m1", errors.New("boom"))

	c := testController(t, entities, cfg)
	err := c.Start(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, c.CurrentSize())
	assert.Equal(t, StateRunning, c.ExpectedState())
}

func TestControllerInitialSizeZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 0
	entities := newFakeEntities()
	c := testController(t, entities, cfg)

	err := c.Start(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.CurrentSize())
	assert.Equal(t, StateRunning, c.ExpectedState())

	v, ok := c.Sensor(SensorServiceUp)
	require.True(t, ok)
	assert.Equal(t, true, v)

	allUp, ok := c.Sensor(SensorClusterOneAndAllMembersUp)
	if ok {
		assert.Equal(t, false, allUp)
	}
}

func TestControllerZoneRoundRobinDistribution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 4
	cfg.EnableAvailabilityZones = true
	cfg.NumAvailabilityZones = 2

	root := &fakeLocation{id: "root", name: "root"}
	zoneA := &fakeLocation{id: "zone-a", name: "zone-a", parent: root, caps: []string{AvailabilityZoneCapability}}
	zoneB := &fakeLocation{id: "zone-b", name: "zone-b", parent: root, caps: []string{AvailabilityZoneCapability}}

	entities := newFakeEntities()
	c, err := NewController(Options{
		ID:               "zoned-cluster",
		Location:         root,
		Entities:         entities,
		LocationResolver: staticResolver{zones: []Location{zoneA, zoneB}},
		Config:           cfg,
		MemberSpec:       testMemberSpec(),
	})
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background(), nil))
	assert.Equal(t, 4, c.CurrentSize())

	counts := map[string]int{}
	for _, m := range c.Members() {
		require.Len(t, m.Locations, 1)
		counts[m.Locations[0].ID()]++
	}
	assert.Equal(t, 2, counts["zone-a"])
	assert.Equal(t, 2, counts["zone-b"])

	failedLocs, ok := c.Sensor(SensorFailedSubLocations)
	require.True(t, ok)
	assert.Empty(t, failedLocs)
}

type staticResolver struct {
	zones []Location
}

func (r staticResolver) ResolveLocation(ctx context.Context, cluster Location, explicit Location) (Location, error) {
	if explicit != nil {
		return explicit, nil
	}
	return cluster, nil
}

func (r staticResolver) SubLocations(ctx context.Context, parent Location, names []string, count int) ([]Location, error) {
	return r.zones, nil
}

func TestControllerZoneFailureStopsPlacementInFailedZone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 0
	cfg.EnableAvailabilityZones = true
	cfg.NumAvailabilityZones = 2

	root := &fakeLocation{id: "root", name: "root"}
	zoneA := &fakeLocation{id: "zone-a", name: "zone-a", parent: root, caps: []string{AvailabilityZoneCapability}}
	zoneB := &fakeLocation{id: "zone-b", name: "zone-b", parent: root, caps: []string{AvailabilityZoneCapability}}

	entities := newFakeEntities()
	c, err := NewController(Options{
		ID:               "zoned-cluster",
		Location:         root,
		Entities:         entities,
		LocationResolver: staticResolver{zones: []Location{zoneA, zoneB}},
		Config:           cfg,
		MemberSpec:       testMemberSpec(),
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background(), nil))

	// Round-robin placement sends the first new member to zone-a and the
	// second to zone-b (equal counts, zone-a wins ties). Failing it there
	// keeps zone-a at the least-loaded count, so both members of the
	// second round also land in zone-a, reaching the default 2-failure
	// threshold and opening the circuit for zone-a specifically.
	entities.failStart("m0", errors.New("zone-a is down"))
	entities.failStart("m2", errors.New("zone-a is down"))
	entities.failStart("m3", errors.New("zone-a is down"))

	_, err = c.ResizeByDelta(context.Background(), 2)
	require.NoError(t, err)
	_, err = c.ResizeByDelta(context.Background(), 2)
	require.NoError(t, err)

	// zone-a should now be classified failed; every subsequent addition
	// must land in zone-b only.
	res, err := c.ResizeByDelta(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, res.Value, 2)
	for _, m := range res.Value {
		assert.Equal(t, "zone-b", m.Locations[0].ID())
	}

	subLocs, ok := c.Sensor(SensorSubLocations)
	require.True(t, ok)
	assert.Equal(t, []string{"zone-b"}, subLocs)

	failedLocs, ok := c.Sensor(SensorFailedSubLocations)
	require.True(t, ok)
	assert.Equal(t, []string{"zone-a"}, failedLocs)
}

func TestControllerReplaceMemberPreservesZoneAndStopsOld(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 1
	cfg.EnableAvailabilityZones = true
	cfg.NumAvailabilityZones = 1

	root := &fakeLocation{id: "root", name: "root"}
	zoneA := &fakeLocation{id: "zone-a", name: "zone-a", parent: root, caps: []string{AvailabilityZoneCapability}}

	entities := newFakeEntities()
	c, err := NewController(Options{
		ID:               "zoned-cluster",
		Location:         root,
		Entities:         entities,
		LocationResolver: staticResolver{zones: []Location{zoneA}},
		Config:           cfg,
		MemberSpec:       testMemberSpec(),
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background(), nil))

	members := c.Members()
	require.Len(t, members, 1)
	old := members[0]

	newID, err := c.ReplaceMember(context.Background(), old.ID)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, newID)

	assert.Equal(t, 1, c.CurrentSize())
	assert.False(t, entities.isManaged(old.ID))
	assert.True(t, entities.isManaged(newID))

	replacement := c.Members()[0]
	require.Len(t, replacement.Locations, 1)
	assert.Equal(t, "zone-a", replacement.Locations[0].ID())
}

func TestControllerReplaceMemberUnknownIDFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 1
	entities := newFakeEntities()
	c := testController(t, entities, cfg)
	require.NoError(t, c.Start(context.Background(), nil))

	_, err := c.ReplaceMember(context.Background(), "does-not-exist")
	require.Error(t, err)
	var clusterErr *Error
	require.ErrorAs(t, err, &clusterErr)
	assert.Equal(t, KindNoSuchMember, clusterErr.Kind)
}

func TestControllerShrinkDefaultRemovalPrefersNewestStartable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 3
	entities := newFakeEntities()
	c := testController(t, entities, cfg)
	require.NoError(t, c.Start(context.Background(), nil))

	before := c.Members()
	require.Len(t, before, 3)

	_, err := c.ResizeByDelta(context.Background(), -1)
	require.NoError(t, err)

	after := c.Members()
	require.Len(t, after, 2)
	// The newest member (highest cluster_member_id) must be the one removed.
	removedNewest := true
	for _, m := range after {
		if m.ClusterMemberID == before[len(before)-1].ClusterMemberID {
			removedNewest = false
		}
	}
	assert.True(t, removedNewest)
}

func TestControllerResizeByDeltaReportsMaskedErrorOnPartialGrowFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 0
	entities := newFakeEntities()
	c := testController(t, entities, cfg)
	require.NoError(t, c.Start(context.Background(), nil))

	entities.failStart("m1", errors.New("one member refuses to start"))

	res, err := c.ResizeByDelta(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, ResultOkWithMaskedError, res.Kind)
	assert.Error(t, res.Err)
	assert.Len(t, res.Value, 1)
	assert.Equal(t, 1, c.CurrentSize())
}

func TestControllerQuarantinesFailedMemberWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 0
	cfg.QuarantineFailedEntities = true
	entities := newFakeEntities()
	c := testController(t, entities, cfg)
	require.NoError(t, c.Start(context.Background(), nil))

	entities.failStart("m0", errors.New("never comes up"))
	_, err := c.ResizeByDelta(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 0, c.CurrentSize())
	assert.Equal(t, 1, c.QuarantineSize())

	v, ok := c.Sensor(SensorQuarantineGroup)
	require.True(t, ok)
	assert.Equal(t, []string{"m0"}, v)
}

func TestControllerStopDrivesSizeToZeroAndStopsQuarantine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 2
	cfg.QuarantineFailedEntities = true
	entities := newFakeEntities()
	c := testController(t, entities, cfg)
	require.NoError(t, c.Start(context.Background(), nil))

	entities.failStart("m2", errors.New("never comes up"))
	_, err := c.ResizeByDelta(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, c.QuarantineSize())

	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, 0, c.CurrentSize())
	assert.Equal(t, StateStopped, c.ExpectedState())
}

func TestControllerRestartIsNotSupported(t *testing.T) {
	cfg := DefaultConfig()
	entities := newFakeEntities()
	c := testController(t, entities, cfg)

	err := c.Restart(context.Background())
	require.Error(t, err)
	var clusterErr *Error
	require.ErrorAs(t, err, &clusterErr)
	assert.Equal(t, KindNotSupported, clusterErr.Kind)
}

func TestControllerStartRejectsMultipleLocations(t *testing.T) {
	cfg := DefaultConfig()
	entities := newFakeEntities()
	c := testController(t, entities, cfg)

	err := c.Start(context.Background(), []Location{&fakeLocation{id: "a"}, &fakeLocation{id: "b"}})
	require.Error(t, err)
	var clusterErr *Error
	require.ErrorAs(t, err, &clusterErr)
	assert.Equal(t, KindAmbiguousLocation, clusterErr.Kind)
}
