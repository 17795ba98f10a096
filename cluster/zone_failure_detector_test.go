package cluster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdZoneFailureDetectorOpensAfterConsecutiveFailures(t *testing.T) {
	d := NewThresholdZoneFailureDetector(2)
	zone := &fakeLocation{id: "a"}

	assert.False(t, d.HasFailed(zone))
	d.OnStartupFailure(zone, nil, errors.New("boom"))
	assert.False(t, d.HasFailed(zone))
	d.OnStartupFailure(zone, nil, errors.New("boom"))
	assert.True(t, d.HasFailed(zone))
}

func TestThresholdZoneFailureDetectorSuccessResetsCircuit(t *testing.T) {
	d := NewThresholdZoneFailureDetector(2)
	zone := &fakeLocation{id: "a"}

	d.OnStartupFailure(zone, nil, errors.New("boom"))
	d.OnStartupFailure(zone, nil, errors.New("boom"))
	require.True(t, d.HasFailed(zone))

	d.OnStartupSuccess(zone, nil)
	assert.False(t, d.HasFailed(zone))
}

func TestThresholdZoneFailureDetectorTracksZonesIndependently(t *testing.T) {
	d := NewThresholdZoneFailureDetector(2)
	zoneA := &fakeLocation{id: "a"}
	zoneB := &fakeLocation{id: "b"}

	d.OnStartupFailure(zoneA, nil, errors.New("boom"))
	d.OnStartupFailure(zoneA, nil, errors.New("boom"))

	assert.True(t, d.HasFailed(zoneA))
	assert.False(t, d.HasFailed(zoneB))
}

func TestThresholdZoneFailureDetectorDefaultsNonPositiveThreshold(t *testing.T) {
	d := NewThresholdZoneFailureDetector(0)
	zone := &fakeLocation{id: "a"}

	d.OnStartupFailure(zone, nil, errors.New("boom"))
	assert.False(t, d.HasFailed(zone))
	d.OnStartupFailure(zone, nil, errors.New("boom"))
	assert.True(t, d.HasFailed(zone))
}

func TestZoneFailureDetectorByNameUnknownErrors(t *testing.T) {
	_, err := ZoneFailureDetectorByName("does-not-exist", DefaultConfig())
	require.Error(t, err)
}
