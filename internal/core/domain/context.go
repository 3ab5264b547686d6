package domain

import "path/filepath"

// ConfigContext is the private root directory that sandboxes gcloud
// configuration state. Each profile gets its own directory under the
// root, keyed by config id, so one profile's credentials can never leak
// into another's.
type ConfigContext struct {
	Root string
}

// Dir returns the isolated gcloud configuration directory for a profile.
// Every CLI invocation for that profile points CLOUDSDK_CONFIG here,
// never at the operating user's default directory.
func (c ConfigContext) Dir(configID string) string {
	return filepath.Join(c.Root, configID)
}

// LockPath returns the path of the lock file that serializes apply
// operations sharing this root. Two simultaneous gcloud invocations on
// overlapping roots can corrupt gcloud's own lock files.
func (c ConfigContext) LockPath() string {
	return c.Root + ".lock"
}
