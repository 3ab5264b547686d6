package gcloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

const defaultTimeout = 20 * time.Second

// Bridge drives the gcloud binary as a subprocess. Every invocation sets
// CLOUDSDK_CONFIG to the caller's isolated configuration directory, so
// the operating user's default gcloud state is never read or written.
type Bridge struct {
	timeout time.Duration
	logger  *log.Logger

	// PathOverride pins the gcloud binary instead of probing for it.
	pathOverride string

	mu     sync.Mutex
	handle ports.CLIHandle
	found  bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout bounds every gcloud invocation. A hung CLI surfaces as
// domain.ErrCLITimeout instead of blocking the apply indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// WithPathOverride pins the gcloud executable path.
func WithPathOverride(path string) Option {
	return func(b *Bridge) { b.pathOverride = path }
}

// NewBridge creates a gcloud bridge.
func NewBridge(logger *log.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		timeout: defaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// binary returns the detected gcloud path, detecting on first use.
func (b *Bridge) binary(ctx context.Context) (string, error) {
	h, err := b.Detect(ctx)
	if err != nil {
		return "", err
	}
	return h.Path, nil
}

// run executes gcloud with the given arguments, pointing CLOUDSDK_CONFIG
// at configDir. Returns trimmed stdout.
func (b *Bridge) run(ctx context.Context, configDir string, args ...string) (string, error) {
	bin, err := b.binary(ctx)
	if err != nil {
		return "", err
	}
	return runBinary(ctx, bin, configDir, b.timeout, args...)
}

// runBinary is the single choke point for subprocess execution, shared
// with detection probing.
func runBinary(ctx context.Context, bin, configDir string, timeout time.Duration, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Env = append(os.Environ(), "CLOUDSDK_CONFIG="+configDir)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %s %s", domain.ErrCLITimeout, bin, strings.Join(args, " "))
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &domain.CLIError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return "", fmt.Errorf("%w: %v", domain.ErrCLINotFound, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// EnsureConfig creates the named configuration inside configDir if it
// does not exist, then activates it.
func (b *Bridge) EnsureConfig(ctx context.Context, configDir, configID string) error {
	out, err := b.run(ctx, configDir, "config", "configurations", "list", "--format=value(name)")
	if err != nil {
		return fmt.Errorf("listing configurations: %w", err)
	}

	exists := false
	for _, name := range strings.Fields(out) {
		if name == configID {
			exists = true
			break
		}
	}

	if !exists {
		if _, err := b.run(ctx, configDir, "config", "configurations", "create", configID); err != nil {
			var cliErr *domain.CLIError
			// A concurrent create is fine; anything else is not.
			if !(errors.As(err, &cliErr) && strings.Contains(strings.ToLower(cliErr.Stderr), "already exists")) {
				return fmt.Errorf("creating configuration %q: %w", configID, err)
			}
		}
	}

	if _, err := b.run(ctx, configDir, "config", "configurations", "activate", configID); err != nil {
		return fmt.Errorf("activating configuration %q: %w", configID, err)
	}
	return nil
}

// SetActiveAccountProject applies the profile's project, account, and
// service-account key file to the active configuration.
func (b *Bridge) SetActiveAccountProject(ctx context.Context, configDir string, profile domain.Profile) error {
	if profile.Project != "" {
		if _, err := b.run(ctx, configDir, "config", "set", "project", profile.Project); err != nil {
			return fmt.Errorf("setting project: %w", err)
		}
	}

	if profile.ServiceAccountKeyFile != "" {
		if _, err := os.Stat(profile.ServiceAccountKeyFile); err == nil {
			if _, err := b.run(ctx, configDir, "auth", "activate-service-account",
				"--key-file="+profile.ServiceAccountKeyFile); err != nil {
				return fmt.Errorf("activating service account: %w", err)
			}
			if profile.Account != "" {
				if _, err := b.run(ctx, configDir, "config", "set", "account", profile.Account); err != nil {
					return fmt.Errorf("setting account: %w", err)
				}
			}
			return nil
		}
		b.logger.Warn("service account key file missing, falling back to account", "path", profile.ServiceAccountKeyFile)
	}

	if profile.Account != "" {
		if _, err := b.run(ctx, configDir, "config", "set", "account", profile.Account); err != nil {
			return fmt.Errorf("setting account: %w", err)
		}
	}
	return nil
}

// ResolveProject resolves a project id or number to the full identity
// pair. The result is populated completely or not at all.
func (b *Bridge) ResolveProject(ctx context.Context, configDir, projectRef string) (domain.ProjectIdentity, error) {
	if projectRef == "" {
		return domain.ProjectIdentity{}, fmt.Errorf("%w: empty project reference", domain.ErrProjectNotFound)
	}

	out, err := b.run(ctx, configDir, "projects", "describe", projectRef,
		"--format=value(projectId,projectNumber)")
	if err == nil {
		if fields := strings.Fields(out); len(fields) == 2 {
			return domain.ProjectIdentity{ID: fields[0], Number: fields[1]}, nil
		}
	} else if errors.Is(err, domain.ErrCLITimeout) || errors.Is(err, domain.ErrCLINotFound) {
		return domain.ProjectIdentity{}, err
	}

	// describe may be denied while list still works; try the filter form.
	out, err = b.run(ctx, configDir, "projects", "list",
		"--filter=projectId="+projectRef, "--format=value(projectNumber)")
	if err != nil {
		if errors.Is(err, domain.ErrCLITimeout) || errors.Is(err, domain.ErrCLINotFound) {
			return domain.ProjectIdentity{}, err
		}
		return domain.ProjectIdentity{}, fmt.Errorf("%w: %q", domain.ErrProjectNotFound, projectRef)
	}
	if num := strings.TrimSpace(out); num != "" {
		return domain.ProjectIdentity{ID: projectRef, Number: num}, nil
	}
	return domain.ProjectIdentity{}, fmt.Errorf("%w: %q", domain.ErrProjectNotFound, projectRef)
}

// RevokeAll revokes every active credential and the application default
// credential inside configDir. Absent credentials are not errors.
func (b *Bridge) RevokeAll(ctx context.Context, configDir string) error {
	if _, err := b.run(ctx, configDir, "auth", "revoke", "--all", "--quiet"); err != nil {
		var cliErr *domain.CLIError
		if !errors.As(err, &cliErr) {
			return fmt.Errorf("revoking credentials: %w", err)
		}
		b.logger.Debug("auth revoke reported nothing to revoke", "stderr", cliErr.Stderr)
	}
	if _, err := b.run(ctx, configDir, "auth", "application-default", "revoke", "--quiet"); err != nil {
		var cliErr *domain.CLIError
		if !errors.As(err, &cliErr) {
			return fmt.Errorf("revoking application default credentials: %w", err)
		}
		b.logger.Debug("ADC revoke reported nothing to revoke", "stderr", cliErr.Stderr)
	}
	return nil
}

// ActiveConfig reports the active configuration name and its core
// project/account inside configDir.
func (b *Bridge) ActiveConfig(ctx context.Context, configDir string) (name, project, account string, err error) {
	name, err = b.run(ctx, configDir, "info", "--format=value(config.active_config_name)")
	if err != nil {
		return "", "", "", fmt.Errorf("reading active configuration: %w", err)
	}

	out, err := b.run(ctx, configDir, "config", "list", "--format=value(core.project,core.account)")
	if err != nil {
		return "", "", "", fmt.Errorf("reading core properties: %w", err)
	}
	fields := strings.Split(out, "\t")
	if len(fields) > 0 {
		project = strings.TrimSpace(fields[0])
	}
	if len(fields) > 1 {
		account = strings.TrimSpace(fields[1])
	}
	return name, project, account, nil
}

var _ ports.CloudCLI = (*Bridge)(nil)
