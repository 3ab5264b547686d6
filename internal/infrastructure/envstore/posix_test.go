//go:build !windows

package envstore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gswitch.dev/cli/internal/core/domain"
)

func newTestStore(t *testing.T) (*PosixStore, string) {
	t.Helper()
	home := t.TempDir()
	envFile := filepath.Join(home, ".config", "gswitch", "env.sh")
	return NewPosixStore(log.New(io.Discard), envFile, home, "/bin/bash"), home
}

// TestPosixStore_Persist_WritesExactVariableSet tests the overwrite
// semantics that make stale keys impossible.
func TestPosixStore_Persist_WritesExactVariableSet(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Persist(domain.ScopeUser, map[string]string{"X": "1", "Z": "old"}, nil))
	require.NoError(t, store.Persist(domain.ScopeUser, map[string]string{"X": "1", "Y": "2"}, []string{"X", "Z"}))

	snapshot, err := store.Snapshot(domain.ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X": "1", "Y": "2"}, snapshot)
}

// TestPosixStore_Persist_QuotesAwkwardValues tests shell-safe quoting of
// values with spaces, quotes, and expansion characters.
func TestPosixStore_Persist_QuotesAwkwardValues(t *testing.T) {
	store, _ := newTestStore(t)

	vars := map[string]string{
		"SPACES":    "a b c",
		"QUOTE":     "it's",
		"DQUOTE":    `say "hi"`,
		"DOLLAR":    "$HOME and `cmd`",
		"BACKSLASH": `a\b and a\$b`,
		"NEWLINE":   "line1\nline2",
		"MIXED":     `it's "both" kinds for $5`,
	}
	require.NoError(t, store.Persist(domain.ScopeUser, vars, nil))

	snapshot, err := store.Snapshot(domain.ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, vars, snapshot, "values round-trip through the export file")
}

// TestPosixStore_Persist_AfterAwkwardValues_StillWorks tests that a
// persisted value with embedded quotes never breaks the next apply's
// snapshot read.
func TestPosixStore_Persist_AfterAwkwardValues_StillWorks(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Persist(domain.ScopeUser, map[string]string{"QUOTE": "it's"}, nil))

	prior, err := store.Snapshot(domain.ScopeUser)
	require.NoError(t, err)
	require.Contains(t, prior, "QUOTE")

	priorKeys := make([]string, 0, len(prior))
	for k := range prior {
		priorKeys = append(priorKeys, k)
	}
	require.NoError(t, store.Persist(domain.ScopeUser, map[string]string{"FRESH": "1"}, priorKeys))

	snapshot, err := store.Snapshot(domain.ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FRESH": "1"}, snapshot)
}

// TestPosixStore_Persist_Idempotent tests byte-identical output on
// repeated applies of the same variable set.
func TestPosixStore_Persist_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	vars := map[string]string{"API_KEY": "abc", "GOOGLE_CLOUD_PROJECT": "proj-123"}

	require.NoError(t, store.Persist(domain.ScopeUser, vars, nil))
	first, err := os.ReadFile(store.EnvFile())
	require.NoError(t, err)

	require.NoError(t, store.Persist(domain.ScopeUser, vars, nil))
	second, err := os.ReadFile(store.EnvFile())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestPosixStore_MachineScope_Unsupported tests the scope check happens
// up front and leaves the filesystem untouched.
func TestPosixStore_MachineScope_Unsupported(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Persist(domain.ScopeMachine, map[string]string{"X": "1"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMachineScopeUnsupported)
	assert.NoFileExists(t, store.EnvFile())
}

// TestPosixStore_EnsureSourced_SingleMarkerLine tests that repeated
// persists never duplicate the rc source line.
func TestPosixStore_EnsureSourced_SingleMarkerLine(t *testing.T) {
	store, home := newTestStore(t)
	bashrc := filepath.Join(home, ".bashrc")
	require.NoError(t, os.WriteFile(bashrc, []byte("# existing content\nexport PATH=$PATH:/opt/bin\n"), 0o644))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Persist(domain.ScopeUser, map[string]string{"X": "1"}, nil))
	}

	data, err := os.ReadFile(bashrc)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), rcMarker), "marker line inserted exactly once")
	assert.Contains(t, string(data), "# existing content", "existing rc content preserved")
}

// TestPosixStore_EnsureSourced_CreatesRCWhenMissing tests first-run
// behavior on a home directory with no startup files.
func TestPosixStore_EnsureSourced_CreatesRCWhenMissing(t *testing.T) {
	store, home := newTestStore(t)

	require.NoError(t, store.Persist(domain.ScopeUser, map[string]string{"X": "1"}, nil))

	data, err := os.ReadFile(filepath.Join(home, ".bashrc"))
	require.NoError(t, err)
	assert.Contains(t, string(data), rcMarker)
}

// TestPosixStore_RCWiringFailure_ReportedDistinctly tests that a failure
// to update the startup files is not reported as a failed persist: the
// environment file is already durably written at that point.
func TestPosixStore_RCWiringFailure_ReportedDistinctly(t *testing.T) {
	store, home := newTestStore(t)
	// An unreadable rc candidate makes the wiring step fail.
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".bashrc"), 0o755))

	err := store.Persist(domain.ScopeUser, map[string]string{"X": "1"}, nil)
	require.Error(t, err)

	var persistErr *domain.PersistenceError
	assert.False(t, errors.As(err, &persistErr), "durable write succeeded, so no persistence error")
	assert.Contains(t, err.Error(), "startup")

	snapshot, snapErr := store.Snapshot(domain.ScopeUser)
	require.NoError(t, snapErr)
	assert.Equal(t, map[string]string{"X": "1"}, snapshot, "environment file was written despite the wiring failure")
}

// TestPosixStore_Snapshot_MissingFileIsEmpty tests the empty-state read.
func TestPosixStore_Snapshot_MissingFileIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	snapshot, err := store.Snapshot(domain.ScopeUser)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

// TestPosixStore_Propagate_ReportsManualStep tests that propagation is
// honestly reported as not automatic on POSIX.
func TestPosixStore_Propagate_ReportsManualStep(t *testing.T) {
	store, _ := newTestStore(t)

	result, err := store.Propagate(map[string]string{"X": "1"})
	require.NoError(t, err)
	assert.False(t, result.LiveSessionUpdated)
	assert.Contains(t, result.Hint, store.EnvFile())
}
