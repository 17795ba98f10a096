// Package policy provides a minimal concrete cluster.Policy instance: one
// with no autonomous behavior of its own, suspended and resumed along with
// every other attached policy across a start/stop cycle. The controller
// attaches no policy by itself; dynaclusterd's serve command attaches a
// Noop.
package policy

import (
	"sync/atomic"

	"github.com/dynacluster/dynacluster/cluster"
)

// Noop is a cluster.Policy that takes no autonomous action; it only tracks
// whether it is currently suspended, for tests that assert the controller
// suspends/resumes every attached policy around stop.
type Noop struct {
	suspended atomic.Bool
}

// NewNoop builds a policy that starts out resumed.
func NewNoop() *Noop {
	return &Noop{}
}

// Suspend implements cluster.Policy.
func (p *Noop) Suspend() { p.suspended.Store(true) }

// Resume implements cluster.Policy.
func (p *Noop) Resume() { p.suspended.Store(false) }

// Suspended reports the policy's current state, for tests.
func (p *Noop) Suspended() bool { return p.suspended.Load() }

var _ cluster.Policy = (*Noop)(nil)
