//go:build !windows

package envstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

// rcMarker tags every line this tool writes into a shell startup file,
// so repeated applies can find their own line and never duplicate it.
const rcMarker = "# gswitch-env"

// PosixStore persists environment variables as a single dedicated
// export file and wires a source line into the user's shell startup
// files. The file is overwritten wholesale on every persist, so stale
// keys cannot survive by construction.
type PosixStore struct {
	envFile string
	home    string
	shell   string
	logger  *log.Logger
}

// NewStore returns the platform env store: on POSIX, a PosixStore
// rooted at the XDG config directory.
func NewStore(logger *log.Logger) (ports.EnvStore, error) {
	envFile, err := xdg.ConfigFile(filepath.Join("gswitch", "env.sh"))
	if err != nil {
		return nil, fmt.Errorf("resolving env file path: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return NewPosixStore(logger, envFile, home, os.Getenv("SHELL")), nil
}

// NewPosixStore builds a store with explicit paths. Tests point it at a
// temporary directory.
func NewPosixStore(logger *log.Logger, envFile, home, shell string) *PosixStore {
	return &PosixStore{
		envFile: envFile,
		home:    home,
		shell:   shell,
		logger:  logger,
	}
}

// EnvFile returns the path of the dedicated export file.
func (s *PosixStore) EnvFile() string { return s.envFile }

// CanPersist reports whether a persist to scope is possible. POSIX has
// no machine-wide registry equivalent; only user scope is supported.
func (s *PosixStore) CanPersist(scope domain.Scope) error {
	if scope == domain.ScopeMachine {
		return domain.ErrMachineScopeUnsupported
	}
	return nil
}

// Persist overwrites the export file with exactly vars and ensures the
// startup files source it. priorKeys needs no handling here: the file
// is the single storage unit and overwriting it drops removed keys.
func (s *PosixStore) Persist(scope domain.Scope, vars map[string]string, priorKeys []string) error {
	if err := s.CanPersist(scope); err != nil {
		return &domain.PersistenceError{Scope: scope, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.envFile), 0o755); err != nil {
		return &domain.PersistenceError{Scope: scope, Err: err}
	}

	var b strings.Builder
	b.WriteString("# Generated by gswitch. Do not edit by hand.\n")
	for _, k := range domain.SortedKeys(vars) {
		b.WriteString("export " + k + "=" + quoteValue(vars[k]) + "\n")
	}

	// Write-then-rename keeps the persist all-or-nothing: a failure part
	// way through leaves the previous file intact.
	tmp := s.envFile + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return &domain.PersistenceError{Scope: scope, Err: err}
	}
	if err := os.Rename(tmp, s.envFile); err != nil {
		os.Remove(tmp)
		return &domain.PersistenceError{Scope: scope, Err: err}
	}

	// The durable write already succeeded at this point; an rc-wiring
	// failure is reported as such, not as a failed persist.
	if err := s.ensureSourced(); err != nil {
		return fmt.Errorf("environment file %s updated, but wiring shell startup files failed: %w", s.envFile, err)
	}
	return nil
}

// quoteValue renders a value so that a POSIX shell sourcing the file and
// the dotenv parser reading it back both recover the original string.
// Double quotes with backslash escapes are the intersection both sides
// agree on; single-quote quoting is not, because the dotenv grammar has
// no concatenation. Line breaks are stored as \n/\r escapes, which the
// dotenv reader restores.
func quoteValue(v string) string {
	var b strings.Builder
	b.Grow(len(v) + 2)
	b.WriteByte('"')
	for _, r := range v {
		switch r {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Snapshot parses the export file back into the persisted variable set.
// A missing file is an empty snapshot.
func (s *PosixStore) Snapshot(scope domain.Scope) (map[string]string, error) {
	if err := s.CanPersist(scope); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.envFile)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	vars, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing env file: %w", err)
	}
	return vars, nil
}

// Propagate cannot reach an already-running POSIX shell: environment
// blocks are inherited at process creation. Persistence is automatic;
// the live session is not, and the result says so explicitly.
func (s *PosixStore) Propagate(vars map[string]string) (domain.PropagationResult, error) {
	return domain.PropagationResult{
		LiveSessionUpdated: false,
		Hint:               fmt.Sprintf("run '. %s' or open a new shell to pick up the change", s.envFile),
	}, nil
}

// sourceLine is the single line inserted into startup files.
func (s *PosixStore) sourceLine() string {
	quoted := shellescape.Quote(s.envFile)
	return fmt.Sprintf("[ -f %s ] && . %s %s", quoted, quoted, rcMarker)
}

// ensureSourced inserts the marker-guarded source line into the shell
// startup candidates, exactly once per file.
func (s *PosixStore) ensureSourced() error {
	line := s.sourceLine()
	created := false
	for _, rc := range s.rcCandidates() {
		data, err := os.ReadFile(rc)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("reading %s: %w", rc, err)
			}
			// Only create a file when no candidate carried the line yet;
			// inventing every possible rc file would change shell startup
			// behavior.
			if created {
				continue
			}
			if err := os.WriteFile(rc, []byte("# Created by gswitch\n"+line+"\n"), 0o644); err != nil {
				return fmt.Errorf("creating %s: %w", rc, err)
			}
			created = true
			continue
		}
		if containsMarkerLine(string(data)) {
			created = true
			continue
		}
		f, err := os.OpenFile(rc, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", rc, err)
		}
		_, werr := f.WriteString("\n" + line + "\n")
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("appending to %s: %w", rc, werr)
		}
		if cerr != nil {
			return fmt.Errorf("closing %s: %w", rc, cerr)
		}
		created = true
	}
	return nil
}

func containsMarkerLine(text string) bool {
	for _, l := range strings.Split(text, "\n") {
		if strings.Contains(l, rcMarker) {
			return true
		}
	}
	return false
}

// rcCandidates lists the startup files for the user's shell, most
// specific first, deduplicated.
func (s *PosixStore) rcCandidates() []string {
	shell := filepath.Base(s.shell)
	var names []string
	switch shell {
	case "zsh", ".", "":
		names = []string{".zshrc", ".profile"}
	case "bash":
		names = []string{".bashrc", ".profile"}
	default:
		names = []string{".profile"}
	}

	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		p := filepath.Join(s.home, n)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

var _ ports.EnvStore = (*PosixStore)(nil)
