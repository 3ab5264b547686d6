package envstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gswitch.dev/cli/internal/core/domain"
)

// TestMemory_Persist_ClearsPriorKeys tests the snapshot invariant: after
// persisting {X,Y} with priorKeys {X,Z}, exactly {X,Y} remain.
func TestMemory_Persist_ClearsPriorKeys(t *testing.T) {
	store := NewMemory()
	require.NoError(t, store.Persist(domain.ScopeUser, map[string]string{"X": "0", "Z": "stale"}, nil))

	require.NoError(t, store.Persist(domain.ScopeUser,
		map[string]string{"X": "1", "Y": "2"},
		[]string{"X", "Z"}))

	snapshot, err := store.Snapshot(domain.ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X": "1", "Y": "2"}, snapshot)
}

// TestMemory_MachineScope_RequiresElevation tests the up-front privilege
// check and that a denied persist has no side effects.
func TestMemory_MachineScope_RequiresElevation(t *testing.T) {
	store := NewMemory()

	err := store.Persist(domain.ScopeMachine, map[string]string{"X": "1"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrElevationRequired)
	assert.Zero(t, store.PersistCalls)

	snapshot, err := store.Snapshot(domain.ScopeMachine)
	require.NoError(t, err)
	assert.Empty(t, snapshot)

	store.Elevated = true
	require.NoError(t, store.Persist(domain.ScopeMachine, map[string]string{"X": "1"}, nil))
	assert.Equal(t, 1, store.PersistCalls)
}

// TestMemory_Scopes_Isolated tests that user and machine scopes hold
// independent variable sets.
func TestMemory_Scopes_Isolated(t *testing.T) {
	store := NewMemory()
	store.Elevated = true

	require.NoError(t, store.Persist(domain.ScopeUser, map[string]string{"A": "u"}, nil))
	require.NoError(t, store.Persist(domain.ScopeMachine, map[string]string{"A": "m"}, nil))

	user, _ := store.Snapshot(domain.ScopeUser)
	machine, _ := store.Snapshot(domain.ScopeMachine)
	assert.Equal(t, "u", user["A"])
	assert.Equal(t, "m", machine["A"])
}
