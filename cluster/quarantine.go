package cluster

import "sync"

// QuarantineGroup is C5: an auxiliary child group collecting failed
// members. Members held here are not part of Controller.members and are
// not stopped by shrink, but are stopped when the stop() sweep runs.
type QuarantineGroup struct {
	mu      sync.Mutex
	members []*Member
	set     map[string]*Member
}

// NewQuarantineGroup builds an empty quarantine group.
func NewQuarantineGroup() *QuarantineGroup {
	return &QuarantineGroup{set: make(map[string]*Member)}
}

// Add moves m into the group; a no-op if m is already quarantined.
func (q *QuarantineGroup) Add(m *Member) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.set[m.ID]; ok {
		return
	}
	q.members = append(q.members, m)
	q.set[m.ID] = m
}

// Remove drops m from the group, if present.
func (q *QuarantineGroup) Remove(m *Member) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.set[m.ID]; !ok {
		return
	}
	delete(q.set, m.ID)
	for i, cur := range q.members {
		if cur == m {
			q.members = append(q.members[:i], q.members[i+1:]...)
			break
		}
	}
}

// Contains reports whether the member with the given id is quarantined.
func (q *QuarantineGroup) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.set[id]
	return ok
}

// Members returns a snapshot of the quarantined members.
func (q *QuarantineGroup) Members() []*Member {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Member, len(q.members))
	copy(out, q.members)
	return out
}

// Size returns the number of quarantined members.
func (q *QuarantineGroup) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.members)
}
