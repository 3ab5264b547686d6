package purge

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gswitch.dev/cli/internal/core/domain"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// buildContext populates a fake gcloud configuration directory with the
// full set of credential artifacts.
func buildContext(t *testing.T, dir, configID, account string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configurations"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configurations", "config_"+configID), []byte("[core]\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "application_default_credentials.json"), []byte("{}"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "legacy_credentials", account), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy_credentials", account, "adc.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.db"), []byte("db"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "access_tokens.db"), []byte("db"), 0o600))
}

// TestPurger_DeepPurge_RemovesAllCredentialTargets tests the deep mode
// target list.
func TestPurger_DeepPurge_RemovesAllCredentialTargets(t *testing.T) {
	dir := t.TempDir()
	buildContext(t, dir, "work", "me@example.com")

	report, err := NewPurger(testLogger()).Purge(dir, "work", domain.PurgeDeep, "")
	require.NoError(t, err)

	assert.Equal(t, 5, report.Removed())
	assert.Empty(t, report.Failures())
	assert.NoFileExists(t, filepath.Join(dir, "application_default_credentials.json"))
	assert.NoFileExists(t, filepath.Join(dir, "credentials.db"))
	assert.NoFileExists(t, filepath.Join(dir, "access_tokens.db"))
	assert.NoDirExists(t, filepath.Join(dir, "legacy_credentials"))
	assert.NoFileExists(t, filepath.Join(dir, "configurations", "config_work"))
}

// TestPurger_ShallowPurge_LeavesCredentialCaches tests that shallow mode
// only forces configuration recreation.
func TestPurger_ShallowPurge_LeavesCredentialCaches(t *testing.T) {
	dir := t.TempDir()
	buildContext(t, dir, "work", "me@example.com")

	report, err := NewPurger(testLogger()).Purge(dir, "work", domain.PurgeShallow, "")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Removed())
	assert.NoFileExists(t, filepath.Join(dir, "configurations", "config_work"))
	assert.FileExists(t, filepath.Join(dir, "application_default_credentials.json"))
	assert.FileExists(t, filepath.Join(dir, "credentials.db"))
}

// TestPurger_ShallowWithAccountHint_DropsThatAccountOnly tests the
// account-scoped legacy credential removal.
func TestPurger_ShallowWithAccountHint_DropsThatAccountOnly(t *testing.T) {
	dir := t.TempDir()
	buildContext(t, dir, "work", "me@example.com")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "legacy_credentials", "other@example.com"), 0o755))

	_, err := NewPurger(testLogger()).Purge(dir, "work", domain.PurgeShallow, "me@example.com")
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(dir, "legacy_credentials", "me@example.com"))
	assert.DirExists(t, filepath.Join(dir, "legacy_credentials", "other@example.com"))
}

// TestPurger_EmptyContext_IdempotentAllAbsent tests purge on a context
// with nothing to remove, twice.
func TestPurger_EmptyContext_IdempotentAllAbsent(t *testing.T) {
	dir := t.TempDir()
	purger := NewPurger(testLogger())

	first, err := purger.Purge(dir, "work", domain.PurgeDeep, "")
	require.NoError(t, err)
	assert.Equal(t, 0, first.Removed())
	for _, target := range first.Targets {
		assert.Equal(t, domain.TargetAbsent, target.State)
	}

	second, err := purger.Purge(dir, "work", domain.PurgeDeep, "")
	require.NoError(t, err)
	assert.Equal(t, first.Targets, second.Targets, "second run reports identically")
}

// TestPurger_DoublePurge_SecondRunAllAbsent tests idempotence on a
// populated context.
func TestPurger_DoublePurge_SecondRunAllAbsent(t *testing.T) {
	dir := t.TempDir()
	buildContext(t, dir, "work", "me@example.com")
	purger := NewPurger(testLogger())

	_, err := purger.Purge(dir, "work", domain.PurgeDeep, "")
	require.NoError(t, err)

	second, err := purger.Purge(dir, "work", domain.PurgeDeep, "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Removed())
	for _, target := range second.Targets {
		assert.Equal(t, domain.TargetAbsent, target.State)
	}
}

// TestPurger_NeverTouchesSiblingContexts tests path containment: a purge
// for context A cannot affect files under a sibling context B even when
// both share a parent root.
func TestPurger_NeverTouchesSiblingContexts(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "a")
	dirB := filepath.Join(root, "b")
	buildContext(t, dirA, "a", "a@example.com")
	buildContext(t, dirB, "b", "b@example.com")

	report, err := NewPurger(testLogger()).Purge(dirA, "a", domain.PurgeDeep, "")
	require.NoError(t, err)

	for _, target := range report.Targets {
		rel, relErr := filepath.Rel(dirA, target.Path)
		require.NoError(t, relErr)
		assert.NotContains(t, rel, "..", "target %s escapes context A", target.Path)
	}

	// Context B is byte-for-byte intact.
	assert.FileExists(t, filepath.Join(dirB, "application_default_credentials.json"))
	assert.FileExists(t, filepath.Join(dirB, "credentials.db"))
	assert.FileExists(t, filepath.Join(dirB, "access_tokens.db"))
	assert.FileExists(t, filepath.Join(dirB, "configurations", "config_b"))
	assert.DirExists(t, filepath.Join(dirB, "legacy_credentials", "b@example.com"))
}

// TestPurger_EscapingTarget_RefusedNotDeleted tests the containment
// check directly with a crafted config id.
func TestPurger_EscapingTarget_RefusedNotDeleted(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "a")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "configurations"), 0o755))
	victim := filepath.Join(root, "configurations", "config_x")
	require.NoError(t, os.WriteFile(victim, []byte("[core]\n"), 0o600))

	// A config id that path-joins outside the context directory.
	report, err := NewPurger(testLogger()).Purge(dirA, "a/../../../configurations/config_x", domain.PurgeShallow, "")
	require.NoError(t, err)

	require.NotEmpty(t, report.Targets)
	assert.Equal(t, domain.TargetFailed, report.Targets[0].State)
	assert.FileExists(t, victim, "escaping target must never be deleted")
}
