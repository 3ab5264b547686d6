package ports

import "gswitch.dev/cli/internal/core/domain"

// ProfileStore is the engine's view of the external profile storage: a
// read/write store keyed by profile name. Records are normalized and
// validated at this boundary.
type ProfileStore interface {
	// Names returns all stored profile names, sorted.
	Names() ([]string, error)

	// Get returns the named profile, or domain.ErrProfileNotFound.
	Get(name string) (domain.Profile, error)

	// Upsert validates, normalizes, and stores a profile.
	Upsert(profile domain.Profile) error

	// Delete removes a profile. Deleting an absent profile is a no-op.
	Delete(name string) error

	// SaveResolvedProject writes a freshly resolved project identity back
	// onto the named profile.
	SaveResolvedProject(name string, identity domain.ProjectIdentity) error
}
