package ports

import "gswitch.dev/cli/internal/core/domain"

// CachePurger removes cached gcloud state for one profile's isolated
// configuration directory. Provably scoped: nothing outside the
// profile's own directory is ever deleted.
type CachePurger interface {
	// Purge removes the targets selected by mode under the profile's
	// context directory. Missing targets are not errors; inaccessible
	// targets are accumulated into the report rather than aborting.
	Purge(contextDir, configID string, mode domain.PurgeMode, accountHint string) (*domain.PurgeReport, error)
}
