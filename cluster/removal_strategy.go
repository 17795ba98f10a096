package cluster

import "fmt"

// RemovalStrategy is C2: given a non-empty collection of candidates, pick
// the one to remove on shrink. Callers may register any function of this
// shape under a stable name via RegisterRemovalStrategy (spec §9: explicit
// registry, not reflective construction).
type RemovalStrategy func(candidates []*Member) *Member

// DefaultRemovalStrategy picks the "newest stoppable" member (spec §4.3):
// startable candidates are preferred over non-startable ones, and within
// the same startability class the newer member wins, where newer means a
// larger cluster_member_id OR a later creation_time (either criterion
// qualifies, to tolerate legacy members predating cluster_member_id). Ties
// are broken by iteration order: a candidate only displaces the current
// best when it is strictly newer.
func DefaultRemovalStrategy(candidates []*Member) *Member {
	var best *Member
	for _, c := range candidates {
		if best == nil {
			best = c
			continue
		}
		if c.IsStartable && !best.IsStartable {
			best = c
			continue
		}
		if !c.IsStartable && best.IsStartable {
			continue
		}
		if c.ClusterMemberID > best.ClusterMemberID || c.CreationTime.After(best.CreationTime) {
			best = c
		}
	}
	return best
}

var removalStrategies = map[string]RemovalStrategy{
	"default": DefaultRemovalStrategy,
}

// RegisterRemovalStrategy makes a RemovalStrategy available by name.
func RegisterRemovalStrategy(name string, strategy RemovalStrategy) {
	removalStrategies[name] = strategy
}

// RemovalStrategyByName looks up a previously registered strategy.
func RemovalStrategyByName(name string) (RemovalStrategy, error) {
	s, ok := removalStrategies[name]
	if !ok {
		return nil, fmt.Errorf("cluster: no removal strategy registered under %q", name)
	}
	return s, nil
}
