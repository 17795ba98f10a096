package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dynacluster/dynacluster/tasks"
)

// Controller is C7: orchestrates start/stop/resize/replace and owns the
// per-cluster serialization mutex (spec §4.1, §5). It is the cluster data
// model (spec §3) and its control loop combined into one type, since in Go
// there is no separate "cluster entity" distinct from the object that
// manages it.
type Controller struct {
	id          string
	displayName string

	mu                  sync.Mutex
	location            Location
	subLocations        []Location
	failedSubLocations  map[string]Location
	members             []*Member
	memberSet           map[string]*Member
	expectedState       ExpectedState
	startProblem        error

	quarantine *QuarantineGroup
	idAlloc    *IDAllocator

	policiesAttached []Policy

	cfg                      Config
	initialSize              int
	initialQuorumSize        int
	enableAvailabilityZones  bool
	zoneNames                []string
	numZones                 int
	quarantineFailedEntities bool
	customChildFlags         map[string]any

	haveMemberSpec      bool
	memberSpec          MemberSpec
	haveFirstMemberSpec bool
	firstMemberSpec     MemberSpec

	removalStrategy     RemovalStrategy
	zonePlacement       ZonePlacementStrategy
	zoneFailureDetector ZoneFailureDetector
	upQuorumCheck       UpQuorumCheck

	entities         EntityManager
	locationResolver LocationResolver
	runner           tasks.Runner
	nodeFactory      *NodeFactory
	parallelStarter  *ParallelStarter
	health           *HealthAggregator
	events           EventSink
	logger           *slog.Logger

	sensorsMu sync.RWMutex
	sensors   map[string]any

	snapshot atomic.Pointer[clusterSnapshot]
}

// Options configures a new Controller.
type Options struct {
	ID              string
	DisplayName     string
	Location        Location
	Config          Config
	Entities        EntityManager
	LocationResolver LocationResolver
	SensorStore     SensorStore
	Runner          tasks.Runner
	Events          EventSink
	Logger          *slog.Logger
	MemberSpec      *MemberSpec
	FirstMemberSpec *MemberSpec
}

// NewController builds a Controller from opts. Entities is the only
// required collaborator; everything else falls back to a sensible default.
func NewController(opts Options) (*Controller, error) {
	if opts.Entities == nil {
		return nil, errors.New("cluster: entity manager is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Runner == nil {
		opts.Runner = tasks.NewWorkerPoolRunner(0)
	}
	if opts.Config.RemovalStrategy == "" && opts.Config.InitialSize == 0 {
		opts.Config = DefaultConfig()
	}

	removalStrategy, err := RemovalStrategyByName(orDefault(opts.Config.RemovalStrategy, "default"))
	if err != nil {
		return nil, err
	}
	zonePlacement, err := ZonePlacementStrategyByName(orDefault(opts.Config.ZonePlacementStrategy, "round-robin"))
	if err != nil {
		return nil, err
	}
	zoneFailureDetector, err := ZoneFailureDetectorByName(orDefault(opts.Config.ZoneFailureDetector, "threshold"), opts.Config)
	if err != nil {
		return nil, err
	}
	upQuorumCheck, err := UpQuorumCheckByName(orDefault(opts.Config.UpQuorumCheck, "at-least-one-unless-empty"))
	if err != nil {
		return nil, err
	}

	c := &Controller{
		id:                       opts.ID,
		displayName:              opts.DisplayName,
		location:                 opts.Location,
		failedSubLocations:       make(map[string]Location),
		memberSet:                make(map[string]*Member),
		quarantine:               NewQuarantineGroup(),
		expectedState:            StateCreated,
		cfg:                      opts.Config,
		initialSize:              opts.Config.InitialSize,
		initialQuorumSize:        opts.Config.InitialQuorumSize,
		enableAvailabilityZones:  opts.Config.EnableAvailabilityZones,
		zoneNames:                opts.Config.AvailabilityZoneNames,
		numZones:                 opts.Config.NumAvailabilityZones,
		quarantineFailedEntities: opts.Config.QuarantineFailedEntities,
		customChildFlags:         opts.Config.CustomChildFlags,
		removalStrategy:          removalStrategy,
		zonePlacement:            zonePlacement,
		zoneFailureDetector:      zoneFailureDetector,
		upQuorumCheck:            upQuorumCheck,
		entities:                 opts.Entities,
		locationResolver:         opts.LocationResolver,
		runner:                   opts.Runner,
		events:                   opts.Events,
		logger:                   opts.Logger,
		sensors:                  make(map[string]any),
	}
	if opts.MemberSpec != nil {
		c.memberSpec = *opts.MemberSpec
		c.haveMemberSpec = true
	}
	if opts.FirstMemberSpec != nil {
		c.firstMemberSpec = *opts.FirstMemberSpec
		c.haveFirstMemberSpec = true
	}

	c.idAlloc = NewIDAllocator(c.id, opts.SensorStore, c.logger)
	c.nodeFactory = NewNodeFactory(c.entities, c.idAlloc, c.logger)
	c.parallelStarter = NewParallelStarter(c.runner, c.logger)
	c.health = NewHealthAggregator(c, opts.Config.HealthCheckPeriod, c.logger)
	c.publishSnapshot()

	return c, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// AttachPolicy registers a policy the controller suspends during stop and
// resumes after start settles.
func (c *Controller) AttachPolicy(p Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policiesAttached = append(c.policiesAttached, p)
}

// Start accepts zero or one location and brings the cluster up to
// initial_size (spec §4.1).
func (c *Controller) Start(ctx context.Context, locations []Location) error {
	if len(locations) > 1 {
		return NewError(KindAmbiguousLocation, fmt.Errorf("start given %d locations, at most one allowed", len(locations)))
	}

	c.mu.Lock()
	if len(locations) == 1 {
		c.location = locations[0]
	}
	if c.location == nil {
		c.mu.Unlock()
		return NewError(KindNoLocation, errors.New("no location available to start cluster"))
	}
	c.expectedState = StateStarting
	c.startProblem = nil
	c.publishSnapshot()

	if c.enableAvailabilityZones && c.locationResolver != nil {
		subs, err := c.locationResolver.SubLocations(ctx, c.location, c.zoneNames, c.numZones)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("enumerating availability zones: %w", err)
		}
		c.subLocations = subs
		c.setSensor(SensorSubLocations, locationIDs(subs))
	}
	c.mu.Unlock()

	c.health.Start(ctx)

	_, startErr := c.Resize(ctx, c.initialSize)

	c.mu.Lock()
	c.expectedState = StateRunning
	size := len(c.members)
	quorum := c.initialQuorumSize
	if quorum < 0 {
		quorum = c.initialSize
	} else if quorum > c.initialSize {
		c.logger.Warn("initial quorum size exceeds initial size, clamping",
			"initial_size", c.initialSize, "initial_quorum_size", quorum)
		quorum = c.initialSize
	}
	c.publishSnapshot()
	policies := append([]Policy(nil), c.policiesAttached...)
	c.mu.Unlock()

	var resultErr error
	switch {
	case size < quorum:
		c.mu.Lock()
		c.startProblem = startErr
		c.mu.Unlock()
		resultErr = NewError(KindQuorumNotReached, fmt.Errorf("only %d of required %d members are up: %w", size, quorum, nonNilErr(startErr)))
	case size < c.initialSize:
		c.logger.Warn("cluster started below initial size but at or above quorum",
			"current_size", size, "initial_size", c.initialSize, "quorum", quorum)
	}

	for _, p := range policies {
		p.Resume()
	}

	return resultErr
}

func nonNilErr(err error) error {
	if err != nil {
		return err
	}
	return errors.New("no members started successfully")
}

// Stop drives the cluster down to zero members and stops the health
// aggregator (spec §4.1). The outside-the-mutex shrink call is deliberate:
// it lets a concurrently running Start observe and be unblocked by this
// Stop, per spec §5 and §9 ("stop racing start").
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.expectedState = StateStopping
	size := len(c.members)
	policies := append([]Policy(nil), c.policiesAttached...)
	c.publishSnapshot()
	c.mu.Unlock()

	for _, p := range policies {
		p.Suspend()
	}

	if size > 0 {
		if _, err := c.shrink(ctx, -size); err != nil {
			return c.fail(fmt.Errorf("stopping cluster: %w", err))
		}
	}

	if _, err := c.Resize(ctx, 0); err != nil {
		return c.fail(fmt.Errorf("stopping cluster: %w", err))
	}

	if err := c.stopQuarantineOccupants(ctx); err != nil {
		return c.fail(fmt.Errorf("stopping quarantined members: %w", err))
	}

	c.health.Stop()

	c.mu.Lock()
	c.expectedState = StateStopped
	c.publishSnapshot()
	c.mu.Unlock()
	return nil
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.expectedState = StateOnFire
	c.publishSnapshot()
	c.mu.Unlock()
	c.health.Stop()
	return err
}

func (c *Controller) stopQuarantineOccupants(ctx context.Context) error {
	occupants := c.quarantine.Members()
	startable := make([]*Member, 0, len(occupants))
	for _, m := range occupants {
		if m.IsStartable {
			startable = append(startable, m)
		}
	}
	_, fatal := c.parallelStarter.RunAll(ctx, startable, func(ctx context.Context, m *Member) error {
		return c.entities.InvokeEffector(ctx, m.ID, "stop", nil)
	})
	return fatal
}

// Resize drives current_size toward desired, inside the mutex (spec §4.1).
func (c *Controller) Resize(ctx context.Context, desired int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delta := desired - len(c.members)
	res, err := c.resizeByDeltaLocked(ctx, delta)
	if err != nil {
		return len(c.members), err
	}
	if res.Kind == ResultOkWithMaskedError {
		return len(c.members), res.Err
	}
	return len(c.members), nil
}

// ResizeByDelta grows or shrinks by delta, inside the mutex (spec §4.1).
func (c *Controller) ResizeByDelta(ctx context.Context, delta int) (Result[[]*Member], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resizeByDeltaLocked(ctx, delta)
}

func (c *Controller) resizeByDeltaLocked(ctx context.Context, delta int) (Result[[]*Member], error) {
	switch {
	case delta > 0:
		return c.grow(ctx, delta)
	case delta < 0:
		return c.shrink(ctx, delta)
	default:
		return Ok[[]*Member](nil), nil
	}
}

// ReplaceMember replaces memberID in place, preserving zone affinity, and
// returns the new member's id (spec §4.1, §4.1.1).
func (c *Controller) ReplaceMember(ctx context.Context, memberID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.memberSet[memberID]
	if !ok {
		return "", NewError(KindNoSuchMember, fmt.Errorf("%q is not a current member", memberID))
	}

	loc := c.inferReplacementLocation(old)

	result, err := c.addInEachLocation(ctx, []Location{loc}, nil)
	if err != nil {
		return "", err
	}
	if len(result.Value) == 0 {
		return "", NewError(KindGrowFailed, fmt.Errorf("replacement for %q failed to start", memberID))
	}
	newMember := result.Value[0]

	c.removeMemberLocked(old)

	var stopErr error
	if old.IsStartable {
		stopErr = c.entities.InvokeEffector(ctx, old.ID, "stop", nil)
	}
	if err := c.entities.Unmanage(ctx, old.ID); err != nil {
		c.logger.Error("failed to unmanage replaced member", "member", old.ID, "error", err)
	}
	if stopErr != nil {
		return newMember.ID, NewError(KindStopFailed, fmt.Errorf("old member %q failed to stop: %w", old.ID, stopErr))
	}
	return newMember.ID, nil
}

// inferReplacementLocation implements spec §4.1.1.
func (c *Controller) inferReplacementLocation(old *Member) Location {
	if !c.enableAvailabilityZones {
		return c.location
	}
	for _, loc := range old.Locations {
		if match := findInSubLocations(loc, c.subLocations); match != nil {
			return match
		}
	}
	if len(old.Locations) == 0 {
		if len(c.subLocations) > 0 {
			return c.subLocations[0]
		}
		return c.location
	}
	for _, loc := range old.Locations {
		if hasCapability(loc, MachineProvisioningCapability) {
			return loc
		}
	}
	return old.Locations[0]
}

func findInSubLocations(loc Location, subLocations []Location) Location {
	for cur := loc; cur != nil; cur = cur.Parent() {
		for _, sub := range subLocations {
			if cur.ID() == sub.ID() {
				return sub
			}
		}
	}
	return nil
}

// grow implements spec §4.1.2.
func (c *Controller) grow(ctx context.Context, delta int) (Result[[]*Member], error) {
	locs, err := c.locationsForGrow(delta)
	if err != nil {
		return Result[[]*Member]{}, err
	}
	return c.addInEachLocation(ctx, locs, nil)
}

func (c *Controller) locationsForGrow(delta int) ([]Location, error) {
	if len(c.memberSpecLocations()) > 0 {
		if c.enableAvailabilityZones {
			c.logger.Warn("member spec carries explicit locations; suppressing zone placement")
		}
		loc := c.memberSpecLocations()[0]
		out := make([]Location, delta)
		for i := range out {
			out[i] = loc
		}
		return out, nil
	}
	if c.enableAvailabilityZones {
		available := c.nonFailedSubLocations()
		if len(available) == 0 {
			return nil, NewError(KindZoneCapacityExhausted, errors.New("no non-failed zones available"))
		}
		locs, err := c.zonePlacement.LocationsForAdditions(c.membersByLocation(), available, delta)
		if err != nil {
			return nil, err
		}
		if len(locs) != delta {
			return nil, NewError(KindPlacementInvariant, fmt.Errorf("zone placement returned %d locations, want %d", len(locs), delta))
		}
		return locs, nil
	}
	out := make([]Location, delta)
	for i := range out {
		out[i] = c.location
	}
	return out, nil
}

func (c *Controller) memberSpecLocations() []Location {
	spec := c.memberSpecFor(len(c.members) == 0)
	if spec == nil {
		return nil
	}
	return spec.Locations
}

// shrink implements spec §4.1.3. Callers must hold mu, except Stop's
// deliberate outside-the-mutex invocation.
func (c *Controller) shrink(ctx context.Context, delta int) (Result[[]*Member], error) {
	size := len(c.members)
	if -delta > size {
		c.logger.Warn("shrink delta exceeds current size, clamping", "requested_delta", delta, "current_size", size)
		delta = -size
	}
	n := -delta
	if n <= 0 {
		return Ok[[]*Member](nil), nil
	}

	victims, err := c.pickAndRemoveMembers(n)
	if err != nil {
		return Result[[]*Member]{}, err
	}

	startableVictims := make([]*Member, 0, len(victims))
	for _, m := range victims {
		if m.IsStartable {
			startableVictims = append(startableVictims, m)
		}
	}

	stopErrs, fatal := c.parallelStarter.RunAll(ctx, startableVictims, func(ctx context.Context, m *Member) error {
		return c.entities.InvokeEffector(ctx, m.ID, "stop", nil)
	})

	for _, m := range victims {
		if err, failed := stopErrs[m]; failed {
			c.logger.Error("member failed to stop during shrink", "member", m.ID, "error", err)
		}
		if err := c.entities.Unmanage(ctx, m.ID); err != nil {
			c.logger.Error("failed to unmanage removed member", "member", m.ID, "error", err)
		}
	}

	if fatal != nil {
		return OkWithMaskedError(victims, fatal), nil
	}
	return Ok(victims), nil
}

func (c *Controller) pickAndRemoveMembers(n int) ([]*Member, error) {
	var victims []*Member
	if c.enableAvailabilityZones {
		vs, err := c.zonePlacement.EntitiesToRemove(c.membersByLocation(), n)
		if err != nil {
			return nil, err
		}
		victims = vs
	} else {
		remaining := append([]*Member(nil), c.members...)
		for i := 0; i < n && len(remaining) > 0; i++ {
			victim := c.removalStrategy(remaining)
			if victim == nil {
				break
			}
			victims = append(victims, victim)
			remaining = removeMemberFromSlice(remaining, victim)
		}
	}
	for _, m := range victims {
		c.removeMemberLocked(m)
	}
	return victims, nil
}

// addInEachLocation implements spec §4.1.4.
func (c *Controller) addInEachLocation(ctx context.Context, locations []Location, extraFlags map[string]any) (Result[[]*Member], error) {
	work := make([]*Member, 0, len(locations))
	for _, loc := range locations {
		m, err := c.nodeFactory.AddNode(ctx, c, loc, extraFlags)
		if err != nil {
			return Result[[]*Member]{}, fmt.Errorf("minting member in %s: %w", loc.Name(), err)
		}
		c.members = append(c.members, m)
		c.memberSet[m.ID] = m
		work = append(work, m)
	}
	c.publishSnapshot()

	startable := make([]*Member, 0, len(work))
	for _, m := range work {
		if m.IsStartable {
			startable = append(startable, m)
		}
	}

	startErrs, fatal := c.parallelStarter.RunAll(ctx, startable, func(ctx context.Context, m *Member) error {
		return c.entities.InvokeEffector(ctx, m.ID, "start", nil)
	})
	if fatal != nil {
		return Result[[]*Member]{}, fatal
	}

	for _, m := range startable {
		loc := firstLocation(m)
		if err, failed := startErrs[m]; failed {
			if c.enableAvailabilityZones && loc != nil {
				c.zoneFailureDetector.OnStartupFailure(loc, m, err)
			}
		} else {
			m.SetServiceUp(True)
			if c.enableAvailabilityZones && loc != nil {
				c.zoneFailureDetector.OnStartupSuccess(loc, m)
			}
		}
	}

	var successes []*Member
	var maskedErr error
	for _, m := range work {
		err, failed := startErrs[m]
		if !failed {
			successes = append(successes, m)
			continue
		}
		c.removeMemberLocked(m)
		if c.quarantineFailedEntities {
			c.quarantine.Add(m)
			c.setSensor(SensorQuarantineGroup, quarantineMemberIDs(c.quarantine))
			c.emitEvent(SensorEntityQuarantined, m.ID)
		} else if unmanageErr := c.entities.Unmanage(ctx, m.ID); unmanageErr != nil {
			c.logger.Error("failed to unmanage discarded member", "member", m.ID, "error", unmanageErr)
		}
		maskedErr = errors.Join(maskedErr, fmt.Errorf("member %s: %w", m.ID, err))
	}

	if maskedErr != nil {
		return OkWithMaskedError(successes, maskedErr), nil
	}
	return Ok(successes), nil
}

func firstLocation(m *Member) Location {
	if len(m.Locations) == 0 {
		return nil
	}
	return m.Locations[0]
}

func removeMemberFromSlice(members []*Member, victim *Member) []*Member {
	out := make([]*Member, 0, len(members)-1)
	for _, m := range members {
		if m != victim {
			out = append(out, m)
		}
	}
	return out
}

// removeMemberLocked removes m from members and re-publishes the snapshot.
// Callers must hold mu.
func (c *Controller) removeMemberLocked(m *Member) {
	for i, cur := range c.members {
		if cur == m {
			c.members = append(c.members[:i], c.members[i+1:]...)
			break
		}
	}
	delete(c.memberSet, m.ID)
	c.publishSnapshot()
}

func (c *Controller) memberSpecFor(clusterEmpty bool) *MemberSpec {
	if clusterEmpty && c.haveFirstMemberSpec {
		return &c.firstMemberSpec
	}
	if c.haveMemberSpec {
		return &c.memberSpec
	}
	if c.haveFirstMemberSpec {
		return &c.firstMemberSpec
	}
	return nil
}

func (c *Controller) membersByLocation() map[string][]*Member {
	out := make(map[string][]*Member)
	for _, m := range c.members {
		loc := firstLocation(m)
		if loc == nil {
			continue
		}
		out[loc.ID()] = append(out[loc.ID()], m)
	}
	return out
}

// nonFailedSubLocations recomputes failedSubLocations and warns on zones
// that newly failed or newly recovered since the last placement pass
// (spec §4.5). Publishes SUB_LOCATIONS (the non-failed set) and
// FAILED_SUB_LOCATIONS at each call, so both sensors reflect the most
// recent placement pass.
func (c *Controller) nonFailedSubLocations() []Location {
	var available []Location
	var newlyFailed, newlyRecovered []string
	var availableIDs, failedIDs []string
	stillFailed := make(map[string]Location, len(c.failedSubLocations))

	for _, loc := range c.subLocations {
		failed := c.zoneFailureDetector.HasFailed(loc)
		_, wasFailed := c.failedSubLocations[loc.ID()]
		switch {
		case failed:
			stillFailed[loc.ID()] = loc
			failedIDs = append(failedIDs, loc.ID())
			if !wasFailed {
				newlyFailed = append(newlyFailed, loc.Name())
			}
		default:
			available = append(available, loc)
			availableIDs = append(availableIDs, loc.ID())
			if wasFailed {
				newlyRecovered = append(newlyRecovered, loc.Name())
			}
		}
	}
	c.failedSubLocations = stillFailed
	c.setSensor(SensorSubLocations, availableIDs)
	c.setSensor(SensorFailedSubLocations, failedIDs)

	for _, name := range newlyFailed {
		c.logger.Warn("availability zone newly classified as failed", "zone", name)
	}
	for _, name := range newlyRecovered {
		c.logger.Warn("availability zone recovered", "zone", name)
	}
	return available
}

func locationIDs(locs []Location) []string {
	ids := make([]string, len(locs))
	for i, loc := range locs {
		ids[i] = loc.ID()
	}
	return ids
}

// publishSnapshot republishes the race-free cluster snapshot along with the
// two sensors derived from it: SERVICE_STATE_ACTUAL (spec §6, updated on
// every expected_state transition — every such transition is immediately
// followed by a publishSnapshot call) and the service-up enricher's
// SERVICE_UP (spec §4.7, recomputed on every membership change).
func (c *Controller) publishSnapshot() {
	members := make([]*Member, len(c.members))
	copy(members, c.members)
	c.snapshot.Store(&clusterSnapshot{members: members, expectedState: c.expectedState})
	c.setSensor(SensorServiceStateActual, c.expectedState.String())
	c.setSensor(SensorServiceUp, evaluateServiceUp(c.upQuorumCheck, members))
}

func quarantineMemberIDs(q *QuarantineGroup) []string {
	occupants := q.Members()
	ids := make([]string, len(occupants))
	for i, m := range occupants {
		ids[i] = m.ID
	}
	return ids
}

func (c *Controller) evaluateAllMembersUp() bool {
	snap := c.snapshot.Load()
	if snap == nil || len(snap.members) == 0 {
		return false
	}
	if snap.expectedState != StateRunning {
		return false
	}
	for _, m := range snap.members {
		if m.ServiceUp() != True {
			return false
		}
	}
	return true
}

// evaluateServiceUp reads the service-up enricher's predicate over members
// only, excluding the quarantine group (spec §4.7: quarantined members are
// never part of the members slice, so exclusion is automatic here).
func (c *Controller) evaluateServiceUp() bool {
	snap := c.snapshot.Load()
	if snap == nil {
		return evaluateServiceUp(c.upQuorumCheck, nil)
	}
	return evaluateServiceUp(c.upQuorumCheck, snap.members)
}

func evaluateServiceUp(check UpQuorumCheck, members []*Member) bool {
	up := 0
	for _, m := range members {
		if m.ServiceUp() == True {
			up++
		}
	}
	return check(len(members), up)
}

func (c *Controller) setSensor(name string, value any) {
	c.sensorsMu.Lock()
	c.sensors[name] = value
	c.sensorsMu.Unlock()
	c.emitEvent(name, value)
}

func (c *Controller) emitEvent(name string, value any) {
	if c.events != nil {
		c.events.Emit(c.id, name, value)
	}
}

// Sensor reads a named cluster sensor, such as
// cluster.one.and.all.members.up.
func (c *Controller) Sensor(name string) (any, bool) {
	c.sensorsMu.RLock()
	defer c.sensorsMu.RUnlock()
	v, ok := c.sensors[name]
	return v, ok
}

// ID returns the cluster's identity.
func (c *Controller) ID() string { return c.id }

// CurrentSize returns the live member count.
func (c *Controller) CurrentSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members)
}

// ExpectedState returns the cluster's lifecycle state.
func (c *Controller) ExpectedState() ExpectedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expectedState
}

// Members returns a snapshot of the current member list, in join order.
func (c *Controller) Members() []*Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Member, len(c.members))
	copy(out, c.members)
	return out
}

// QuarantineSize returns the number of quarantined members.
func (c *Controller) QuarantineSize() int {
	return c.quarantine.Size()
}

// Restart is intentionally unsupported (spec §6).
func (c *Controller) Restart(ctx context.Context) error {
	return NewError(KindNotSupported, errors.New("restart is not supported"))
}
