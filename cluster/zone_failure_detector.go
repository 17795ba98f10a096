package cluster

import (
	"fmt"
	"sync"
)

// ZoneFailureDetector is C4, a pluggable capability tracking per-zone
// start success/failure and classifying zones as currently failed. The
// controller uses HasFailed to filter zones before placement (spec §4.5).
type ZoneFailureDetector interface {
	OnStartupSuccess(loc Location, member *Member)
	OnStartupFailure(loc Location, member *Member, err error)
	HasFailed(loc Location) bool
}

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitHalfOpen
	circuitOpen
)

// thresholdZoneFailureDetector is a consecutive-failure threshold detector
// with circuit-breaker-style half-open recovery: a single success resets a
// half-open or open zone to closed. Grounded on the teacher's fault-
// tolerance CircuitBreaker (Closed/Open/HalfOpen) and FaultDetector
// (per-key metrics map guarded by a mutex).
type thresholdZoneFailureDetector struct {
	mu          sync.Mutex
	threshold   int
	consecutive map[string]int
	state       map[string]circuitState
}

// NewThresholdZoneFailureDetector classifies a zone failed once it has
// accumulated threshold consecutive startup failures with no intervening
// success.
func NewThresholdZoneFailureDetector(threshold int) ZoneFailureDetector {
	if threshold <= 0 {
		threshold = 2
	}
	return &thresholdZoneFailureDetector{
		threshold:   threshold,
		consecutive: make(map[string]int),
		state:       make(map[string]circuitState),
	}
}

func (d *thresholdZoneFailureDetector) OnStartupSuccess(loc Location, _ *Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := loc.ID()
	d.consecutive[id] = 0
	d.state[id] = circuitClosed
}

func (d *thresholdZoneFailureDetector) OnStartupFailure(loc Location, _ *Member, _ error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := loc.ID()
	d.consecutive[id]++
	if d.consecutive[id] >= d.threshold {
		d.state[id] = circuitOpen
	} else if d.state[id] == circuitClosed {
		d.state[id] = circuitHalfOpen
	}
}

func (d *thresholdZoneFailureDetector) HasFailed(loc Location) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state[loc.ID()] == circuitOpen
}

// ZoneFailureDetectorFactory builds a ZoneFailureDetector from config.
type ZoneFailureDetectorFactory func(cfg Config) ZoneFailureDetector

var zoneFailureDetectors = map[string]ZoneFailureDetectorFactory{
	"threshold": func(cfg Config) ZoneFailureDetector {
		return NewThresholdZoneFailureDetector(2)
	},
}

// RegisterZoneFailureDetector makes a ZoneFailureDetectorFactory available
// by name.
func RegisterZoneFailureDetector(name string, factory ZoneFailureDetectorFactory) {
	zoneFailureDetectors[name] = factory
}

// ZoneFailureDetectorByName looks up a previously registered factory.
func ZoneFailureDetectorByName(name string, cfg Config) (ZoneFailureDetector, error) {
	f, ok := zoneFailureDetectors[name]
	if !ok {
		return nil, fmt.Errorf("cluster: no zone failure detector registered under %q", name)
	}
	return f(cfg), nil
}
