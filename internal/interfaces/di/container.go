// Package di wires the application's dependencies once at startup.
package di

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"

	"gswitch.dev/cli/internal/application/services"
	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
	"gswitch.dev/cli/internal/infrastructure/envstore"
	"gswitch.dev/cli/internal/infrastructure/gcloud"
	"gswitch.dev/cli/internal/infrastructure/profilestore"
	"gswitch.dev/cli/internal/infrastructure/purge"
)

// Container holds all application dependencies.
type Container struct {
	Logger   *log.Logger
	Settings profilestore.Settings
	Context  domain.ConfigContext

	Profiles ports.ProfileStore
	Env      ports.EnvStore
	Bridge   ports.CloudCLI
	Purger   ports.CachePurger

	Apply   *services.ApplyService
	Inspect *services.InspectService
}

// NewContainer creates and wires the container. The platform env store
// is selected here, once, by OS detection.
func NewContainer() (*Container, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "gswitch",
	})

	settingsPath, err := profilestore.SettingsPath()
	if err != nil {
		return nil, fmt.Errorf("resolving settings path: %w", err)
	}
	settings, err := profilestore.LoadSettings(settingsPath)
	if err != nil {
		// Damaged settings must not brick the tool; fall back to defaults.
		logger.Warn("could not load settings, using defaults", "error", err)
		settings = profilestore.Settings{}
	}

	root := settings.ConfigRoot
	if root == "" {
		root = filepath.Join(xdg.ConfigHome, "gswitch", "contexts")
	}
	configContext := domain.ConfigContext{Root: root}

	profilesPath, err := profilestore.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolving profiles path: %w", err)
	}
	profiles := profilestore.NewStore(profilesPath, logger)

	env, err := envstore.NewStore(logger)
	if err != nil {
		return nil, fmt.Errorf("initializing environment store: %w", err)
	}

	var bridgeOpts []gcloud.Option
	if settings.GcloudPath != "" {
		bridgeOpts = append(bridgeOpts, gcloud.WithPathOverride(settings.GcloudPath))
	}
	bridge := gcloud.NewBridge(logger, bridgeOpts...)

	purger := purge.NewPurger(logger)

	return &Container{
		Logger:   logger,
		Settings: settings,
		Context:  configContext,
		Profiles: profiles,
		Env:      env,
		Bridge:   bridge,
		Purger:   purger,
		Apply:    services.NewApplyService(bridge, env, purger, profiles, configContext, logger),
		Inspect:  services.NewInspectService(bridge, env, gcloud.DefaultConfigDir(), logger),
	}, nil
}
