// Package purge removes cached gcloud credential artifacts from a
// profile's isolated configuration directory.
package purge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

// Purger deletes credential-cache targets under a context directory.
// Every candidate path is containment-checked against the context
// directory before deletion, so a purge for one profile is provably
// unable to touch a sibling profile's cache.
type Purger struct {
	logger *log.Logger
}

// NewPurger creates a Purger.
func NewPurger(logger *log.Logger) *Purger {
	return &Purger{logger: logger}
}

// target is one path a purge will consider, with the modes it applies to.
type target struct {
	rel      string
	deepOnly bool
	isDir    bool
}

// purge targets inside a gcloud configuration directory. The
// configuration entry itself is removed in every mode (forcing gcloud to
// recreate it); credential caches only in deep mode.
func targetsFor(configID string, mode domain.PurgeMode, accountHint string) []target {
	t := []target{
		{rel: filepath.Join("configurations", "config_"+configID)},
	}
	if mode == domain.PurgeDeep {
		t = append(t,
			target{rel: "application_default_credentials.json", deepOnly: true},
			target{rel: "legacy_credentials", deepOnly: true, isDir: true},
			target{rel: "credentials.db", deepOnly: true},
			target{rel: "access_tokens.db", deepOnly: true},
		)
	} else if accountHint != "" {
		// Shallow mode with a known account still drops that account's
		// legacy credential directory, matching gcloud's own layout.
		t = append(t, target{rel: filepath.Join("legacy_credentials", accountHint), isDir: true})
	}
	return t
}

// Purge removes the selected targets under contextDir. Missing targets
// are reported as absent, not errors; inaccessible targets are collected
// into the report rather than aborting the purge. Running the same purge
// twice yields an all-absent second report.
func (p *Purger) Purge(contextDir, configID string, mode domain.PurgeMode, accountHint string) (*domain.PurgeReport, error) {
	root, err := filepath.Abs(contextDir)
	if err != nil {
		return nil, fmt.Errorf("resolving context directory: %w", err)
	}

	report := &domain.PurgeReport{
		ContextDir: root,
		ConfigID:   configID,
		Mode:       mode,
	}

	for _, t := range targetsFor(configID, mode, accountHint) {
		path := filepath.Join(root, t.rel)
		report.Targets = append(report.Targets, p.remove(root, path, t.isDir))
	}
	return report, nil
}

// remove deletes one target after verifying it resolves inside root.
func (p *Purger) remove(root, path string, isDir bool) domain.PurgeTarget {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return domain.PurgeTarget{Path: path, State: domain.TargetFailed, Detail: err.Error()}
	}
	if !contained(root, resolved) {
		return domain.PurgeTarget{
			Path:   path,
			State:  domain.TargetFailed,
			Detail: "target escapes the context directory, refusing to delete",
		}
	}

	info, err := os.Lstat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.PurgeTarget{Path: resolved, State: domain.TargetAbsent}
		}
		return domain.PurgeTarget{Path: resolved, State: domain.TargetFailed, Detail: err.Error()}
	}

	if isDir || info.IsDir() {
		err = os.RemoveAll(resolved)
	} else {
		err = os.Remove(resolved)
	}
	if err != nil {
		return domain.PurgeTarget{Path: resolved, State: domain.TargetFailed, Detail: err.Error()}
	}

	p.logger.Debug("purged", "path", resolved)
	return domain.PurgeTarget{Path: resolved, State: domain.TargetRemoved}
}

// contained reports whether path sits at or below root after resolution.
func contained(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

var _ ports.CachePurger = (*Purger)(nil)
