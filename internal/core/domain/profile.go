package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Scope selects the durable persistence target for environment variables.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeMachine Scope = "machine"
)

// Profile is a named bundle of environment variables plus an optional
// cloud account/project binding. Records coming from the on-disk store
// are normalized once at the boundary so the engine never sees malformed
// data.
type Profile struct {
	Name                  string            `json:"name"`
	GoogleAPIKey          string            `json:"google_api_key"`
	GeminiAPIKey          string            `json:"gemini_api_key"`
	Project               string            `json:"gcloud_project"`
	ProjectNumber         string            `json:"gcloud_project_number"`
	Account               string            `json:"gcloud_account"`
	ServiceAccountKeyFile string            `json:"gcloud_service_account_key_file,omitempty"`
	ExtraVars             map[string]string `json:"extra_vars,omitempty"`
	MachineWide           bool              `json:"machine_wide,omitempty"`
}

// Normalized returns a copy with all fields trimmed and an empty name
// replaced by "default".
func (p Profile) Normalized() Profile {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "default"
	}
	out := Profile{
		Name:                  name,
		GoogleAPIKey:          strings.TrimSpace(p.GoogleAPIKey),
		GeminiAPIKey:          strings.TrimSpace(p.GeminiAPIKey),
		Project:               strings.TrimSpace(p.Project),
		ProjectNumber:         strings.TrimSpace(p.ProjectNumber),
		Account:               strings.TrimSpace(p.Account),
		ServiceAccountKeyFile: strings.TrimSpace(p.ServiceAccountKeyFile),
		MachineWide:           p.MachineWide,
	}
	if len(p.ExtraVars) > 0 {
		out.ExtraVars = make(map[string]string, len(p.ExtraVars))
		for k, v := range p.ExtraVars {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			out.ExtraVars[k] = v
		}
	}
	return out
}

// Validate checks the minimum a profile needs before it can be stored.
func (p Profile) Validate() error {
	n := p.Normalized()
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if n.GoogleAPIKey == "" && n.GeminiAPIKey == "" && len(n.ExtraVars) == 0 && n.Project == "" {
		return fmt.Errorf("profile %q carries no API key, project, or variables", n.Name)
	}
	return nil
}

// ConfigID returns the sanitized gcloud configuration identifier for the
// profile. Deterministic for a given name.
func (p Profile) ConfigID() string {
	return Sanitize(p.Name).ID
}

// Identity returns the profile's cached project identity. Both fields are
// populated together or not at all.
func (p Profile) Identity() (ProjectIdentity, bool) {
	if p.Project != "" && p.ProjectNumber != "" {
		return ProjectIdentity{ID: p.Project, Number: p.ProjectNumber}, true
	}
	return ProjectIdentity{}, false
}

// SetIdentity replaces the cached project identity atomically.
func (p *Profile) SetIdentity(id ProjectIdentity) {
	p.Project = id.ID
	p.ProjectNumber = id.Number
}

// EnvVars expands the profile into the full variable set an apply must
// persist. Project aliases all receive the project id, mirroring what
// downstream tooling expects.
func (p Profile) EnvVars() map[string]string {
	vars := map[string]string{
		"GOOGLE_API_KEY":          p.GoogleAPIKey,
		"GEMINI_API_KEY":          p.GeminiAPIKey,
		"GOOGLE_CLOUD_PROJECT":    p.Project,
		"GOOGLE_CLOUD_PROJECT_ID": p.Project,
		"GCLOUD_PROJECT":          p.Project,
		"PROJECT_ID":              p.Project,
		"PROJECT_NUMBER":          p.ProjectNumber,
	}
	for k, v := range p.ExtraVars {
		vars[k] = v
	}
	return vars
}

// WellKnownKeys lists every variable name the engine ever writes on a
// profile's behalf. Used to clear stale keys when switching between
// profiles with disjoint variable sets.
func WellKnownKeys() []string {
	return []string{
		"GOOGLE_API_KEY",
		"GEMINI_API_KEY",
		"GOOGLE_CLOUD_PROJECT",
		"GOOGLE_CLOUD_PROJECT_ID",
		"GCLOUD_PROJECT",
		"PROJECT_ID",
		"PROJECT_NUMBER",
	}
}

// ProjectIdentity is the resolved (projectId, projectNumber) pair for a
// cloud project reference.
type ProjectIdentity struct {
	ID     string `json:"project_id"`
	Number string `json:"project_number"`
}

func (p ProjectIdentity) IsZero() bool { return p.ID == "" && p.Number == "" }

func (p ProjectIdentity) String() string {
	if p.Number == "" {
		return p.ID
	}
	return p.ID + " (" + p.Number + ")"
}

// SortedKeys returns the keys of an environment snapshot in stable order,
// so renderings and persisted files are deterministic across applies.
func SortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
