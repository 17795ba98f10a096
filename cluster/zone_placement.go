package cluster

import (
	"fmt"
	"sort"
)

// ZonePlacementStrategy is C3, a pluggable capability the controller treats
// as a black box: distribute new members across zones, and pick which
// current members to remove from which zones (spec §4.4). Grounded on the
// round-robin distribution shape of the teacher's layer-partitioning
// strategy, generalized from "layers over nodes" to "new members over
// zones".
type ZonePlacementStrategy interface {
	// LocationsForAdditions returns exactly n locations drawn from
	// available, balancing load across zones.
	LocationsForAdditions(membersByLocation map[string][]*Member, available []Location, n int) ([]Location, error)
	// EntitiesToRemove returns exactly n members drawn from
	// membersByLocation, preferring to shrink the most populated zones.
	EntitiesToRemove(membersByLocation map[string][]*Member, n int) ([]*Member, error)
}

type roundRobinZonePlacement struct{}

// NewRoundRobinZonePlacement balances additions and removals by always
// acting on the currently least- (for additions) or most- (for removals)
// populated zone.
func NewRoundRobinZonePlacement() ZonePlacementStrategy {
	return roundRobinZonePlacement{}
}

func (roundRobinZonePlacement) LocationsForAdditions(membersByLocation map[string][]*Member, available []Location, n int) ([]Location, error) {
	if n == 0 {
		return nil, nil
	}
	if len(available) == 0 {
		return nil, NewError(KindZoneCapacityExhausted, fmt.Errorf("no available zones for %d additions", n))
	}
	counts := make(map[string]int, len(available))
	for _, loc := range available {
		counts[loc.ID()] = len(membersByLocation[loc.ID()])
	}
	out := make([]Location, 0, n)
	for i := 0; i < n; i++ {
		best := available[0]
		for _, loc := range available[1:] {
			if counts[loc.ID()] < counts[best.ID()] {
				best = loc
			}
		}
		out = append(out, best)
		counts[best.ID()]++
	}
	if len(out) != n {
		return nil, NewError(KindPlacementInvariant, fmt.Errorf("expected %d locations, produced %d", n, len(out)))
	}
	return out, nil
}

func (roundRobinZonePlacement) EntitiesToRemove(membersByLocation map[string][]*Member, n int) ([]*Member, error) {
	if n == 0 {
		return nil, nil
	}
	working := make(map[string][]*Member, len(membersByLocation))
	keys := make([]string, 0, len(membersByLocation))
	for k, v := range membersByLocation {
		cp := make([]*Member, len(v))
		copy(cp, v)
		working[k] = cp
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*Member, 0, n)
	for i := 0; i < n; i++ {
		maxKey := ""
		maxLen := 0
		for _, k := range keys {
			if len(working[k]) > maxLen {
				maxLen = len(working[k])
				maxKey = k
			}
		}
		if maxKey == "" {
			break
		}
		victim := DefaultRemovalStrategy(working[maxKey])
		if victim == nil {
			break
		}
		out = append(out, victim)
		filtered := working[maxKey][:0:0]
		for _, m := range working[maxKey] {
			if m != victim {
				filtered = append(filtered, m)
			}
		}
		working[maxKey] = filtered
	}
	if len(out) != n {
		return nil, NewError(KindPlacementInvariant, fmt.Errorf("expected to remove %d members, selected %d", n, len(out)))
	}
	return out, nil
}

var zonePlacementStrategies = map[string]func() ZonePlacementStrategy{
	"round-robin": NewRoundRobinZonePlacement,
}

// RegisterZonePlacementStrategy makes a ZonePlacementStrategy factory
// available by name.
func RegisterZonePlacementStrategy(name string, factory func() ZonePlacementStrategy) {
	zonePlacementStrategies[name] = factory
}

// ZonePlacementStrategyByName looks up a previously registered factory.
func ZonePlacementStrategyByName(name string) (ZonePlacementStrategy, error) {
	f, ok := zonePlacementStrategies[name]
	if !ok {
		return nil, fmt.Errorf("cluster: no zone placement strategy registered under %q", name)
	}
	return f(), nil
}
