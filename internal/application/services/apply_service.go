// Package services orchestrates the profile apply engine: one
// transaction-like operation per profile switch, with per-stage
// progress and rollback-free failure reporting.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

const (
	lockAcquireTimeout = 30 * time.Second
	lockRetryDelay     = 100 * time.Millisecond
)

// Progress receives stage outcomes as an apply advances. Invoked on the
// apply goroutine; implementations must not block for long.
type Progress func(domain.StageOutcome)

// ApplyService runs the apply state machine:
//
//	Validating → ConfiguringCLI → ResolvingProject → Purging →
//	Persisting → Propagating → Applied
//
// Any stage can fail; a failure stops the walk and the result reports
// exactly how far the switch got. Applies sharing a configuration root
// are serialized through a file lock, because two simultaneous gcloud
// invocations on overlapping roots can corrupt gcloud's own lock files.
type ApplyService struct {
	cli      ports.CloudCLI
	env      ports.EnvStore
	purger   ports.CachePurger
	profiles ports.ProfileStore
	context  domain.ConfigContext
	logger   *log.Logger
}

// NewApplyService wires the apply engine.
func NewApplyService(
	cli ports.CloudCLI,
	env ports.EnvStore,
	purger ports.CachePurger,
	profiles ports.ProfileStore,
	configContext domain.ConfigContext,
	logger *log.Logger,
) *ApplyService {
	return &ApplyService{
		cli:      cli,
		env:      env,
		purger:   purger,
		profiles: profiles,
		context:  configContext,
		logger:   logger,
	}
}

// Apply runs one apply operation to completion. Safe to call from any
// goroutine; concurrent applies queue on the context lock.
func (s *ApplyService) Apply(ctx context.Context, profile domain.Profile, opts domain.ApplyOptions) *domain.ApplyResult {
	return s.apply(ctx, profile, opts, nil)
}

// ApplyAsync runs the apply on a dedicated goroutine so a caller driving
// an interactive surface stays responsive. Stage outcomes stream through
// progress; the final result arrives on the returned channel.
func (s *ApplyService) ApplyAsync(ctx context.Context, profile domain.Profile, opts domain.ApplyOptions, progress Progress) <-chan *domain.ApplyResult {
	done := make(chan *domain.ApplyResult, 1)
	go func() {
		done <- s.apply(ctx, profile, opts, progress)
	}()
	return done
}

func (s *ApplyService) apply(ctx context.Context, profile domain.Profile, opts domain.ApplyOptions, progress Progress) *domain.ApplyResult {
	profile = profile.Normalized()

	sanitized := domain.Sanitize(profile.Name)
	if sanitized.FellBack {
		// A warning, never a failure: the fallback id is deterministic.
		s.logger.Warn("profile name had no usable characters, using derived id",
			"name", profile.Name, "config_id", sanitized.ID)
	}

	scope := domain.ScopeUser
	if opts.MachineWide || profile.MachineWide {
		scope = domain.ScopeMachine
	}

	result := domain.NewApplyResult(profile.Name, sanitized.ID, scope)
	emit := func(stage domain.Stage) {
		if progress != nil {
			progress(result.Outcome(stage))
		}
	}

	// Privileges are validated before any side effect: a machine-wide
	// request from an unelevated process fails here with zero writes.
	if err := s.env.CanPersist(scope); err != nil {
		result.Fail(domain.StageValidating, err)
		emit(domain.StageValidating)
		return result
	}
	result.Complete(domain.StageValidating, fmt.Sprintf("profile %q, scope %s", profile.Name, scope))
	emit(domain.StageValidating)

	if err := os.MkdirAll(filepath.Dir(s.context.LockPath()), 0o755); err != nil {
		result.Fail(domain.StageConfiguringCLI, fmt.Errorf("creating config root: %w", err))
		emit(domain.StageConfiguringCLI)
		return result
	}
	lock := flock.New(s.context.LockPath())
	lockCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		reason := domain.ErrApplyInProgress
		if ctx.Err() != nil {
			reason = domain.ErrApplyCanceled
		}
		result.Fail(domain.StageConfiguringCLI, reason)
		emit(domain.StageConfiguringCLI)
		return result
	}
	defer lock.Unlock()

	configDir := s.context.Dir(sanitized.ID)
	cliAvailable := s.configureCLI(ctx, &profile, sanitized.ID, configDir, opts, result)
	emit(domain.StageConfiguringCLI)
	if result.Err != nil {
		return result
	}

	s.resolveProject(ctx, &profile, configDir, cliAvailable, result)
	emit(domain.StageResolvingProject)
	if result.Err != nil {
		return result
	}

	s.runPurge(configDir, sanitized.ID, profile.Account, opts, result)
	emit(domain.StagePurging)
	if result.Err != nil {
		return result
	}

	// Cancellation is cooperative and coarse: once persistence begins the
	// operation cannot be safely canceled, so this is the last check.
	if err := ctx.Err(); err != nil {
		result.Fail(domain.StagePersisting, fmt.Errorf("%w: %v", domain.ErrApplyCanceled, err))
		emit(domain.StagePersisting)
		return result
	}

	vars := profile.EnvVars()
	priorKeys, err := s.priorKeys(scope)
	if err != nil {
		result.Fail(domain.StagePersisting, &domain.PersistenceError{Scope: scope, Err: err})
		emit(domain.StagePersisting)
		return result
	}
	if err := s.env.Persist(scope, vars, priorKeys); err != nil {
		result.Fail(domain.StagePersisting, err)
		emit(domain.StagePersisting)
		return result
	}
	result.Complete(domain.StagePersisting, fmt.Sprintf("%d variables persisted (%s scope)", len(vars), scope))
	emit(domain.StagePersisting)

	prop, err := s.env.Propagate(vars)
	if err != nil {
		result.Fail(domain.StagePropagating, err)
		emit(domain.StagePropagating)
		return result
	}
	result.Propagation = prop
	result.Complete(domain.StagePropagating, prop.Hint)
	emit(domain.StagePropagating)

	return result
}

// configureCLI runs the gcloud configuration stage. A missing CLI
// degrades gracefully: the stage is skipped and raw environment-variable
// profiles still apply.
func (s *ApplyService) configureCLI(ctx context.Context, profile *domain.Profile, configID, configDir string, opts domain.ApplyOptions, result *domain.ApplyResult) bool {
	if _, err := s.cli.Detect(ctx); err != nil {
		if errors.Is(err, domain.ErrCLINotFound) {
			result.Skip(domain.StageConfiguringCLI, "gcloud not found; environment variables still apply")
			return false
		}
		result.Fail(domain.StageConfiguringCLI, err)
		return false
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		result.Fail(domain.StageConfiguringCLI, fmt.Errorf("creating isolated config dir: %w", err))
		return false
	}

	if err := s.cli.EnsureConfig(ctx, configDir, configID); err != nil {
		result.Fail(domain.StageConfiguringCLI, err)
		return false
	}

	if opts.SafeRevoke {
		if err := s.cli.RevokeAll(ctx, configDir); err != nil {
			result.Fail(domain.StageConfiguringCLI, err)
			return false
		}
	}

	if err := s.cli.SetActiveAccountProject(ctx, configDir, *profile); err != nil {
		result.Fail(domain.StageConfiguringCLI, err)
		return false
	}

	result.Complete(domain.StageConfiguringCLI, fmt.Sprintf("configuration %q active", configID))
	return true
}

// resolveProject fills in the missing half of the project identity. The
// cached identity is replaced atomically or kept untouched: a failed
// resolution never leaves a stale number next to a fresh id.
func (s *ApplyService) resolveProject(ctx context.Context, profile *domain.Profile, configDir string, cliAvailable bool, result *domain.ApplyResult) {
	if !cliAvailable {
		result.Skip(domain.StageResolvingProject, "gcloud not found")
		return
	}

	if id, ok := profile.Identity(); ok {
		result.Project = id
		result.Complete(domain.StageResolvingProject, "cached identity "+id.String())
		return
	}

	ref := profile.Project
	if ref == "" {
		ref = profile.ProjectNumber
	}
	if ref == "" {
		result.Skip(domain.StageResolvingProject, "no project reference")
		return
	}

	identity, err := s.cli.ResolveProject(ctx, configDir, ref)
	if err != nil {
		result.Fail(domain.StageResolvingProject, err)
		return
	}

	profile.SetIdentity(identity)
	result.Project = identity
	if err := s.profiles.SaveResolvedProject(profile.Name, identity); err != nil {
		// The resolution itself succeeded; failing to cache it must not
		// abort the switch.
		s.logger.Warn("could not save resolved project", "profile", profile.Name, "error", err)
	}
	result.Complete(domain.StageResolvingProject, "resolved "+identity.String())
}

func (s *ApplyService) runPurge(configDir, configID, accountHint string, opts domain.ApplyOptions, result *domain.ApplyResult) {
	mode, requested := opts.PurgeMode()
	if !requested {
		result.Skip(domain.StagePurging, "purge not requested")
		return
	}

	report, err := s.purger.Purge(configDir, configID, mode, accountHint)
	if err != nil {
		result.Fail(domain.StagePurging, err)
		return
	}
	result.Purge = report

	detail := fmt.Sprintf("%s purge removed %d targets", mode, report.Removed())
	if failures := report.Failures(); len(failures) > 0 {
		detail = fmt.Sprintf("%s, %d inaccessible", detail, len(failures))
	}
	result.Complete(domain.StagePurging, detail)
}

// priorKeys is the union of what the store currently holds and every
// well-known key the engine ever writes, so switching from a profile
// with a disjoint key set leaves nothing behind.
func (s *ApplyService) priorKeys(scope domain.Scope) ([]string, error) {
	snapshot, err := s.env.Snapshot(scope)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var keys []string
	for k := range snapshot {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for _, k := range domain.WellKnownKeys() {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Clear persists the empty variable set, explicitly removing every key
// the engine manages.
func (s *ApplyService) Clear(ctx context.Context, machineWide bool) error {
	scope := domain.ScopeUser
	if machineWide {
		scope = domain.ScopeMachine
	}
	if err := s.env.CanPersist(scope); err != nil {
		return err
	}
	priorKeys, err := s.priorKeys(scope)
	if err != nil {
		return &domain.PersistenceError{Scope: scope, Err: err}
	}
	return s.env.Persist(scope, map[string]string{}, priorKeys)
}
