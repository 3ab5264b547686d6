package envstore

import (
	"sync"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

// Memory is an in-memory EnvStore. Tests inject it in place of the
// registry or filesystem and assert on the resulting snapshot.
type Memory struct {
	mu sync.Mutex
	// Elevated simulates running with machine-scope privileges.
	Elevated bool
	// MachineSupported simulates a platform with a machine scope at all.
	MachineSupported bool

	scopes map[domain.Scope]map[string]string

	// PersistCalls counts completed persists, for zero-side-effect checks.
	PersistCalls int
	// Propagated records the variable sets passed to Propagate.
	Propagated []map[string]string
}

// NewMemory returns an empty in-memory store that supports both scopes
// but starts unelevated.
func NewMemory() *Memory {
	return &Memory{
		MachineSupported: true,
		scopes:           make(map[domain.Scope]map[string]string),
	}
}

func (m *Memory) CanPersist(scope domain.Scope) error {
	if scope == domain.ScopeMachine {
		if !m.MachineSupported {
			return domain.ErrMachineScopeUnsupported
		}
		if !m.Elevated {
			return domain.ErrElevationRequired
		}
	}
	return nil
}

func (m *Memory) Persist(scope domain.Scope, vars map[string]string, priorKeys []string) error {
	if err := m.CanPersist(scope); err != nil {
		return &domain.PersistenceError{Scope: scope, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	store := m.scopes[scope]
	if store == nil {
		store = make(map[string]string)
		m.scopes[scope] = store
	}
	for _, k := range priorKeys {
		delete(store, k)
	}
	for k, v := range vars {
		store[k] = v
	}
	m.PersistCalls++
	return nil
}

func (m *Memory) Snapshot(scope domain.Scope) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.scopes[scope]))
	for k, v := range m.scopes[scope] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Propagate(vars map[string]string) (domain.PropagationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	m.Propagated = append(m.Propagated, copied)
	return domain.PropagationResult{LiveSessionUpdated: false, Hint: "in-memory store"}, nil
}

var _ ports.EnvStore = (*Memory)(nil)
