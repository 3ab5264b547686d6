package gcloud

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

const detectTimeout = 10 * time.Second

// DefaultConfigDir returns the configuration directory the ambient
// gcloud would use without an override: CLOUDSDK_CONFIG when set,
// otherwise the platform default location.
func DefaultConfigDir() string {
	if dir := os.Getenv("CLOUDSDK_CONFIG"); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return filepath.Join(appdata, "gcloud")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gcloud")
}

// Detect locates a working gcloud installation. The result is cached for
// the lifetime of the bridge. Probes, in order: the configured override,
// the executable search path, and the standard install locations for the
// platform. A probe only counts if `gcloud --version` produces output.
func (b *Bridge) Detect(ctx context.Context) (ports.CLIHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.found {
		return b.handle, nil
	}

	for _, cand := range candidatePaths(b.pathOverride) {
		version, err := probeBinary(ctx, cand)
		if err != nil {
			continue
		}
		b.handle = ports.CLIHandle{Path: cand, Version: version}
		b.found = true
		b.logger.Debug("gcloud detected", "path", cand, "version", version)
		return b.handle, nil
	}
	return ports.CLIHandle{}, domain.ErrCLINotFound
}

func probeBinary(ctx context.Context, path string) (string, error) {
	tmp, err := os.MkdirTemp("", "gswitch-probe-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)

	out, err := runBinary(ctx, path, tmp, detectTimeout, "--version")
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("no version output from %s", path)
	}
	if i := strings.IndexByte(out, '\n'); i > 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out), nil
}

// candidatePaths enumerates plausible gcloud locations, deduplicated,
// existing files only. The override always goes first.
func candidatePaths(override string) []string {
	var cands []string
	if override != "" {
		cands = append(cands, override)
	}

	names := []string{"gcloud"}
	if runtime.GOOS == "windows" {
		names = []string{"gcloud.cmd", "gcloud.exe", "gcloud"}
	}
	for _, name := range names {
		if p, err := exec.LookPath(name); err == nil {
			cands = append(cands, p)
		}
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		local := os.Getenv("LOCALAPPDATA")
		if local == "" && home != "" {
			local = filepath.Join(home, "AppData", "Local")
		}
		sysdrive := os.Getenv("SystemDrive")
		if sysdrive == "" {
			sysdrive = "C:"
		}
		cands = append(cands,
			filepath.Join(local, "Google", "Cloud SDK", "google-cloud-sdk", "bin", "gcloud.cmd"),
			filepath.Join(sysdrive, "Program Files", "Google", "Cloud SDK", "google-cloud-sdk", "bin", "gcloud.cmd"),
			filepath.Join(sysdrive, "Program Files (x86)", "Google", "Cloud SDK", "google-cloud-sdk", "bin", "gcloud.cmd"),
		)
	} else {
		cands = append(cands,
			"/usr/local/google-cloud-sdk/bin/gcloud",
			"/usr/lib/google-cloud-sdk/bin/gcloud",
			"/snap/google-cloud-cli/current/bin/gcloud",
		)
		if home != "" {
			cands = append(cands, filepath.Join(home, "google-cloud-sdk", "bin", "gcloud"))
		}
		for _, caskroom := range []string{"/usr/local/Caskroom", "/opt/homebrew/Caskroom"} {
			matches, _ := filepath.Glob(filepath.Join(caskroom, "google-cloud-sdk", "*", "google-cloud-sdk", "bin", "gcloud"))
			cands = append(cands, matches...)
		}
	}

	seen := make(map[string]struct{}, len(cands))
	var out []string
	for _, c := range cands {
		if c == "" {
			continue
		}
		resolved, err := filepath.Abs(c)
		if err != nil {
			continue
		}
		if _, err := os.Stat(resolved); err != nil {
			continue
		}
		if _, ok := seen[resolved]; ok {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
	}
	return out
}
