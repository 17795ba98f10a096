// Package entity provides the default in-process implementation of the
// entity/management-layer contract the cluster controller treats as an
// external collaborator (spec §6): create, parent, register, and read or
// write sensors on arbitrary child entities. Grounded on the teacher's
// pkg/p2p/types.go MockNetworkManager — a minimal in-memory stand-in for
// an external contract, guarded by a single mutex.
package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/dynacluster/dynacluster/cluster"
)

// Effector is a named operation an entity responds to, such as "start" or
// "stop".
type Effector func(ctx context.Context, entityID string, args map[string]any) error

// InMemoryManager is the default cluster.EntityManager: entities live only
// in process memory, addressed by libp2p peer ids minted from freshly
// generated keypairs.
type InMemoryManager struct {
	mu        sync.RWMutex
	entities  map[string]*record
	effectors map[string]Effector
}

type record struct {
	parentID string
	managed  bool
	sensors  map[string]any
}

// NewInMemoryManager builds an empty manager. Register effectors with
// RegisterEffector before any member is started or stopped.
func NewInMemoryManager() *InMemoryManager {
	return &InMemoryManager{
		entities:  make(map[string]*record),
		effectors: make(map[string]Effector),
	}
}

// RegisterEffector makes an effector (e.g. "start", "stop") invocable on
// any entity this manager creates.
func (m *InMemoryManager) RegisterEffector(name string, fn Effector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.effectors[name] = fn
}

// Create implements cluster.EntityManager.
func (m *InMemoryManager) Create(ctx context.Context, spec cluster.MemberSpec, flags map[string]any) (string, error) {
	id, err := newPeerID()
	if err != nil {
		return "", fmt.Errorf("entity: mint member identity: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sensors := make(map[string]any, len(flags))
	for k, v := range flags {
		sensors[k] = v
	}
	m.entities[id] = &record{sensors: sensors}
	return id, nil
}

// HasParent implements cluster.EntityManager.
func (m *InMemoryManager) HasParent(ctx context.Context, entityID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entities[entityID]
	return ok && r.parentID != ""
}

// SetParent implements cluster.EntityManager.
func (m *InMemoryManager) SetParent(ctx context.Context, entityID, parentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entities[entityID]
	if !ok {
		return fmt.Errorf("entity: unknown entity %q", entityID)
	}
	r.parentID = parentID
	return nil
}

// Manage implements cluster.EntityManager.
func (m *InMemoryManager) Manage(ctx context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entities[entityID]
	if !ok {
		return fmt.Errorf("entity: unknown entity %q", entityID)
	}
	r.managed = true
	return nil
}

// Unmanage implements cluster.EntityManager.
func (m *InMemoryManager) Unmanage(ctx context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entities[entityID]
	if !ok {
		return nil
	}
	r.managed = false
	delete(m.entities, entityID)
	return nil
}

// SetSensor implements cluster.EntityManager.
func (m *InMemoryManager) SetSensor(ctx context.Context, entityID, name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entities[entityID]
	if !ok {
		return fmt.Errorf("entity: unknown entity %q", entityID)
	}
	r.sensors[name] = value
	return nil
}

// GetSensor implements cluster.EntityManager.
func (m *InMemoryManager) GetSensor(ctx context.Context, entityID, name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entities[entityID]
	if !ok {
		return nil, false
	}
	v, ok := r.sensors[name]
	return v, ok
}

// InvokeEffector implements cluster.EntityManager.
func (m *InMemoryManager) InvokeEffector(ctx context.Context, entityID, name string, args map[string]any) error {
	m.mu.RLock()
	_, known := m.entities[entityID]
	fn, hasEffector := m.effectors[name]
	m.mu.RUnlock()
	if !known {
		return fmt.Errorf("entity: unknown entity %q", entityID)
	}
	if !hasEffector {
		return nil
	}
	return fn(ctx, entityID, args)
}

// EntityCount returns the number of entities currently tracked, for tests.
func (m *InMemoryManager) EntityCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

var _ cluster.EntityManager = (*InMemoryManager)(nil)
