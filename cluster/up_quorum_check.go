package cluster

import "fmt"

// UpQuorumCheck is the service-up enricher's predicate (spec §4.7): given
// the cluster's current member count and how many of those members report
// service_up=true, decide whether the cluster-level service_up sensor
// should read true. Quarantined members are excluded by construction — the
// controller never counts them among current members. Callers may register
// any function of this shape under a stable name via
// RegisterUpQuorumCheck, mirroring RemovalStrategy's registry.
type UpQuorumCheck func(total, up int) bool

// AtLeastOneUnlessEmpty is the default predicate: an empty cluster is
// considered up (service_up=true immediately, even before any member
// starts); otherwise at least one member must be up.
func AtLeastOneUnlessEmpty(total, up int) bool {
	if total == 0 {
		return true
	}
	return up >= 1
}

var upQuorumChecks = map[string]UpQuorumCheck{
	"at-least-one-unless-empty": AtLeastOneUnlessEmpty,
}

// RegisterUpQuorumCheck makes an UpQuorumCheck available by name.
func RegisterUpQuorumCheck(name string, check UpQuorumCheck) {
	upQuorumChecks[name] = check
}

// UpQuorumCheckByName looks up a previously registered predicate.
func UpQuorumCheckByName(name string) (UpQuorumCheck, error) {
	c, ok := upQuorumChecks[name]
	if !ok {
		return nil, fmt.Errorf("cluster: no up quorum check registered under %q", name)
	}
	return c, nil
}
