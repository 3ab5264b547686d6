package services

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

// InspectReport describes the machine's current switcher-relevant state:
// what is persisted, whether gcloud is usable, and a profile draft
// reconstructed from the live values.
type InspectReport struct {
	// Vars is the persisted user-scope environment snapshot.
	Vars map[string]string
	// CLI is the detected gcloud installation, when present.
	CLI ports.CLIHandle
	// CLIAvailable is false when gcloud could not be located.
	CLIAvailable bool
	// ActiveConfig, ActiveProject, and ActiveAccount describe the state
	// of the ambient gcloud configuration directory.
	ActiveConfig  string
	ActiveProject string
	ActiveAccount string
	// Draft is a profile assembled from the persisted snapshot and the
	// active gcloud state, ready to be saved under a name of the user's
	// choosing.
	Draft domain.Profile
}

// InspectService reads current persisted state without modifying it.
type InspectService struct {
	cli ports.CloudCLI
	env ports.EnvStore
	// ambientConfigDir is the configuration directory gcloud would use
	// outside any isolated context.
	ambientConfigDir string
	logger           *log.Logger
}

// NewInspectService wires an inspector.
func NewInspectService(cli ports.CloudCLI, env ports.EnvStore, ambientConfigDir string, logger *log.Logger) *InspectService {
	return &InspectService{cli: cli, env: env, ambientConfigDir: ambientConfigDir, logger: logger}
}

// Inspect builds a report of the current setup. Detection failures are
// reported, not returned: an absent gcloud is a finding, not an error.
func (s *InspectService) Inspect(ctx context.Context) (*InspectReport, error) {
	vars, err := s.env.Snapshot(domain.ScopeUser)
	if err != nil {
		return nil, err
	}

	report := &InspectReport{Vars: vars}

	handle, err := s.cli.Detect(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCLINotFound) {
			return nil, err
		}
	} else {
		report.CLI = handle
		report.CLIAvailable = true

		name, project, account, err := s.cli.ActiveConfig(ctx, s.ambientConfigDir)
		if err != nil {
			// A broken ambient configuration is a finding, not a failure.
			s.logger.Debug("could not read ambient gcloud configuration", "error", err)
		} else {
			report.ActiveConfig = name
			report.ActiveProject = project
			report.ActiveAccount = account
		}
	}

	draft := domain.Profile{
		Name:          "imported",
		GoogleAPIKey:  vars["GOOGLE_API_KEY"],
		GeminiAPIKey:  vars["GEMINI_API_KEY"],
		Project:       vars["GOOGLE_CLOUD_PROJECT"],
		ProjectNumber: vars["PROJECT_NUMBER"],
	}
	if draft.Project == "" {
		draft.Project = report.ActiveProject
	}
	draft.Account = report.ActiveAccount
	report.Draft = draft.Normalized()

	return report, nil
}
