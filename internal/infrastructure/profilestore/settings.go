package profilestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Settings holds the small set of machine-local preferences: where the
// gcloud binary lives and where the isolated configuration root sits.
type Settings struct {
	GcloudPath string `json:"gcloud_path,omitempty"`
	ConfigRoot string `json:"config_root,omitempty"`
}

// SettingsPath returns the settings file under the XDG config directory.
func SettingsPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("gswitch", "settings.json"))
}

// LoadSettings reads the settings file. A missing file yields zero-value
// settings, not an error.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	return s, nil
}

// SaveSettings writes the settings file.
func SaveSettings(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
