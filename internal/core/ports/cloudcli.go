package ports

import (
	"context"

	"gswitch.dev/cli/internal/core/domain"
)

// CLIHandle describes a located gcloud installation.
type CLIHandle struct {
	// Path is the absolute path of the gcloud executable.
	Path string
	// Version is the first line of `gcloud --version`, when captured.
	Version string
}

// CloudCLI drives the external gcloud binary against an isolated
// configuration directory. Every method sets CLOUDSDK_CONFIG to the
// given directory for the child process, guaranteeing the ambient
// default configuration is never touched.
type CloudCLI interface {
	// Detect locates the gcloud installation, probing the executable
	// search path and standard install locations. Returns
	// domain.ErrCLINotFound when no working binary exists; callers must
	// degrade gracefully rather than failing the whole apply.
	Detect(ctx context.Context) (CLIHandle, error)

	// EnsureConfig makes sure a named configuration exists and is active
	// inside configDir.
	EnsureConfig(ctx context.Context, configDir, configID string) error

	// SetActiveAccountProject points the active configuration at the
	// profile's project, account, and optional service-account key file.
	SetActiveAccountProject(ctx context.Context, configDir string, profile domain.Profile) error

	// ResolveProject resolves a project id or number to the full
	// identity pair. Returns domain.ErrProjectNotFound when the reference
	// does not resolve; never partially populates the result.
	ResolveProject(ctx context.Context, configDir, projectRef string) (domain.ProjectIdentity, error)

	// RevokeAll revokes every active credential and the application
	// default credential inside configDir.
	RevokeAll(ctx context.Context, configDir string) error

	// ActiveConfig reports the active configuration name and its core
	// project/account inside configDir, for inspection.
	ActiveConfig(ctx context.Context, configDir string) (name, project, account string, err error)
}
