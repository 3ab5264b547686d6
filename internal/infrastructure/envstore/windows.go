//go:build windows

package envstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

const (
	userEnvKey    = `Environment`
	machineEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

	// managedKeysValue is a registry value recording which variable names
	// this tool owns. The Environment key is shared with unrelated
	// variables (PATH and friends), so the snapshot must be limited to
	// the keys the engine wrote, never the whole key.
	managedKeysValue = "GSWITCH_MANAGED_KEYS"

	// handoffScript is the one-shot script the launching wrapper executes
	// to update the original shell, then deletes.
	handoffScript = "gswitch-env.cmd"
)

// WindowsStore persists environment variables into the per-scope
// registry subtrees and broadcasts WM_SETTINGCHANGE after writes.
type WindowsStore struct {
	logger *log.Logger
}

// NewStore returns the platform env store: on Windows, a registry-backed
// WindowsStore.
func NewStore(logger *log.Logger) (ports.EnvStore, error) {
	return &WindowsStore{logger: logger}, nil
}

// CanPersist checks privileges before any write happens: machine scope
// needs an elevated token.
func (s *WindowsStore) CanPersist(scope domain.Scope) error {
	if scope == domain.ScopeMachine && !windows.GetCurrentProcessToken().IsElevated() {
		return domain.ErrElevationRequired
	}
	return nil
}

func openScopeKey(scope domain.Scope, access uint32) (registry.Key, error) {
	if scope == domain.ScopeMachine {
		return registry.OpenKey(registry.LOCAL_MACHINE, machineEnvKey, access|registry.WOW64_64KEY)
	}
	return registry.OpenKey(registry.CURRENT_USER, userEnvKey, access)
}

// Persist writes exactly vars under the scope's registry subtree,
// removes keys present in priorKeys (or previously managed) but absent
// from vars, records the managed key set, and broadcasts the change.
func (s *WindowsStore) Persist(scope domain.Scope, vars map[string]string, priorKeys []string) error {
	if err := s.CanPersist(scope); err != nil {
		return &domain.PersistenceError{Scope: scope, Err: err}
	}

	key, err := openScopeKey(scope, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return &domain.PersistenceError{Scope: scope, Err: fmt.Errorf("opening environment key: %w", err)}
	}
	defer key.Close()

	stale := make(map[string]struct{})
	for _, k := range priorKeys {
		stale[k] = struct{}{}
	}
	for _, k := range readManagedKeys(key) {
		stale[k] = struct{}{}
	}

	for _, k := range domain.SortedKeys(vars) {
		if err := key.SetStringValue(k, vars[k]); err != nil {
			return &domain.PersistenceError{Scope: scope, Err: fmt.Errorf("writing %s: %w", k, err)}
		}
		delete(stale, k)
	}

	for k := range stale {
		if err := key.DeleteValue(k); err != nil && err != registry.ErrNotExist {
			return &domain.PersistenceError{Scope: scope, Err: fmt.Errorf("clearing %s: %w", k, err)}
		}
	}

	managed := strings.Join(domain.SortedKeys(vars), ";")
	if managed == "" {
		if err := key.DeleteValue(managedKeysValue); err != nil && err != registry.ErrNotExist {
			return &domain.PersistenceError{Scope: scope, Err: err}
		}
	} else if err := key.SetStringValue(managedKeysValue, managed); err != nil {
		return &domain.PersistenceError{Scope: scope, Err: err}
	}

	broadcastSettingChange()
	return nil
}

// Snapshot returns the variable set this tool manages under scope. The
// registry key is shared with unrelated variables, so only the recorded
// managed keys are read back.
func (s *WindowsStore) Snapshot(scope domain.Scope) (map[string]string, error) {
	key, err := openScopeKey(scope, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("opening environment key: %w", err)
	}
	defer key.Close()

	out := make(map[string]string)
	for _, k := range readManagedKeys(key) {
		v, _, err := key.GetStringValue(k)
		if err != nil {
			if err == registry.ErrNotExist {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func readManagedKeys(key registry.Key) []string {
	raw, _, err := key.GetStringValue(managedKeysValue)
	if err != nil || raw == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ";") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Propagate materializes the one-shot handoff script the launching
// wrapper executes in the original shell. Registry writes never reach an
// already-running process; the script is the explicit contract that
// closes the gap. No variables means no script, which is not an error.
func (s *WindowsStore) Propagate(vars map[string]string) (domain.PropagationResult, error) {
	if len(vars) == 0 {
		return domain.PropagationResult{
			LiveSessionUpdated: false,
			Hint:               "no variables to propagate",
		}, nil
	}

	path := filepath.Join(os.TempDir(), handoffScript)
	var b strings.Builder
	b.WriteString("@echo off\r\n")
	for _, k := range domain.SortedKeys(vars) {
		b.WriteString("set \"" + k + "=" + cmdEscape(vars[k]) + "\"\r\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return domain.PropagationResult{}, fmt.Errorf("writing handoff script: %w", err)
	}

	return domain.PropagationResult{
		LiveSessionUpdated: false,
		ScriptPath:         path,
		Hint:               "launcher will apply the change to the current shell; new shells pick it up automatically",
	}, nil
}

// cmdEscape renders a value for a `set "K=V"` line in a batch script:
// embedded quotes are doubled, percent expansion is disabled, and line
// breaks are stripped because cmd cannot represent them and an embedded
// newline would otherwise inject a second command into the script.
func cmdEscape(v string) string {
	return strings.NewReplacer(
		"\r", "",
		"\n", "",
		`"`, `""`,
		"%", "%%",
	).Replace(v)
}

// broadcastSettingChange tells already-running processes the environment
// changed. Best effort with a bounded wait; a hung window must not stall
// the apply.
func broadcastSettingChange() {
	const (
		hwndBroadcast   = 0xFFFF
		wmSettingChange = 0x001A
		smtoAbortIfHung = 0x0002
	)
	user32 := windows.NewLazySystemDLL("user32.dll")
	proc := user32.NewProc("SendMessageTimeoutW")
	param, err := syscall.UTF16PtrFromString("Environment")
	if err != nil {
		return
	}
	var result uintptr
	proc.Call(
		uintptr(hwndBroadcast),
		uintptr(wmSettingChange),
		0,
		uintptr(unsafe.Pointer(param)),
		uintptr(smtoAbortIfHung),
		uintptr((5 * time.Second).Milliseconds()),
		uintptr(unsafe.Pointer(&result)),
	)
}

var _ ports.EnvStore = (*WindowsStore)(nil)
