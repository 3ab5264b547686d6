package domain

// PurgeMode selects how much of a profile's cached state a purge removes.
type PurgeMode string

const (
	// PurgeShallow removes only the profile's own configuration entry,
	// forcing gcloud to recreate it. Credential caches are left alone.
	PurgeShallow PurgeMode = "shallow"
	// PurgeDeep additionally removes application-default credentials,
	// legacy credential directories, and on-disk token databases.
	PurgeDeep PurgeMode = "deep"
)

// TargetState records what happened to one purge target.
type TargetState string

const (
	TargetRemoved TargetState = "removed"
	TargetAbsent  TargetState = "absent"
	TargetFailed  TargetState = "failed"
)

// PurgeTarget is a single filesystem path a purge considered.
type PurgeTarget struct {
	Path   string
	State  TargetState
	Detail string
}

// PurgeReport lists every target a purge considered and its disposition,
// so the apply layer can surface partial results instead of a bare
// success or failure. Purging an already-clean context yields a report
// with all targets absent.
type PurgeReport struct {
	ContextDir string
	ConfigID   string
	Mode       PurgeMode
	Targets    []PurgeTarget
}

// Removed counts targets actually deleted.
func (r *PurgeReport) Removed() int {
	n := 0
	for _, t := range r.Targets {
		if t.State == TargetRemoved {
			n++
		}
	}
	return n
}

// Failures returns the targets that could not be removed.
func (r *PurgeReport) Failures() []PurgeTarget {
	var out []PurgeTarget
	for _, t := range r.Targets {
		if t.State == TargetFailed {
			out = append(out, t)
		}
	}
	return out
}
