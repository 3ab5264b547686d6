package ports

import "gswitch.dev/cli/internal/core/domain"

// EnvStore is the durable persistence target for environment variables.
// Exactly two OS implementations exist, selected once at startup; tests
// substitute an in-memory fake and assert on the resulting snapshot.
type EnvStore interface {
	// CanPersist reports whether a persist to the given scope would be
	// allowed right now. Machine scope requires elevation on Windows and
	// is unsupported on POSIX. Checked up front so a declined elevation
	// never surfaces mid-write.
	CanPersist(scope domain.Scope) error

	// Persist durably stores exactly vars under scope. Any key present in
	// priorKeys but absent from vars is explicitly removed, so a previous
	// profile's variables never linger. All-or-nothing per scope.
	Persist(scope domain.Scope, vars map[string]string, priorKeys []string) error

	// Snapshot returns the full variable set currently persisted under
	// scope.
	Snapshot(scope domain.Scope) (map[string]string, error)

	// Propagate makes vars visible to the currently running session, to
	// the extent the platform allows, and reports honestly what the user
	// must still do.
	Propagate(vars map[string]string) (domain.PropagationResult, error)
}
