package cluster

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestControllerStopRacesStart exercises spec §9's "stop racing start":
// Stop calls shrink() outside the mutex. Here Stop runs against a
// concurrent ResizeByDelta grow (the same mutex-held resize a Start
// performs) on an already started cluster. Whichever interleaving wins,
// the controller must end in a self-consistent state: no panic, no data
// race (run with -race), and CurrentSize/Members/ExpectedState agreeing
// with each other.
func TestControllerStopRacesStart(t *testing.T) {
	for i := 0; i < 20; i++ {
		cfg := DefaultConfig()
		cfg.InitialSize = 5
		entities := newFakeEntities()
		c := testController(t, entities, cfg)

		require.NoError(t, c.Start(context.Background(), nil))
		require.Equal(t, 5, c.CurrentSize())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Stop(context.Background())
		}()
		go func() {
			defer wg.Done()
			_, _ = c.ResizeByDelta(context.Background(), 3)
		}()
		wg.Wait()

		size := c.CurrentSize()
		members := c.Members()
		assert.Len(t, members, size)
		assert.GreaterOrEqual(t, size, 0)

		state := c.ExpectedState()
		assert.Contains(t, []ExpectedState{StateStopped, StateRunning, StateOnFire}, state)
	}
}

// TestControllerConcurrentResizeByDeltaSerializes fires many concurrent
// ResizeByDelta calls and checks the mutex keeps current_size consistent
// with the sum of applied deltas (clamped at zero).
func TestControllerConcurrentResizeByDeltaSerializes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSize = 0
	entities := newFakeEntities()
	c := testController(t, entities, cfg)
	require.NoError(t, c.Start(context.Background(), nil))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.ResizeByDelta(context.Background(), 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, c.CurrentSize())
	assert.Len(t, c.Members(), 10)
}
