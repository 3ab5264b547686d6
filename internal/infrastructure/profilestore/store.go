// Package profilestore persists named profiles as a single JSON file.
package profilestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/core/ports"
)

// Store is a file-backed profile store. Records are normalized and
// validated on the way in, so the engine never sees malformed data.
type Store struct {
	path   string
	logger *log.Logger

	mu       sync.Mutex
	profiles map[string]domain.Profile
	loaded   bool
}

// fileSchema is the on-disk shape: a single object keyed by profile name.
type fileSchema struct {
	Profiles map[string]domain.Profile `json:"profiles"`
}

// DefaultPath returns the profiles file under the XDG config directory.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("gswitch", "profiles.json"))
}

// NewStore creates a store backed by the given file.
func NewStore(path string, logger *log.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// load reads the file once, lazily. A corrupt file is sidelined to
// <path>.corrupt.json and treated as empty rather than blocking every
// command.
func (s *Store) load() error {
	if s.loaded {
		return nil
	}
	s.profiles = make(map[string]domain.Profile)
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading profiles: %w", err)
	}

	var schema fileSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		sidelined := s.path + ".corrupt.json"
		if werr := os.WriteFile(sidelined, data, 0o600); werr == nil {
			s.logger.Warn("profiles file is corrupt, sidelined", "path", sidelined)
		} else {
			s.logger.Warn("profiles file is corrupt and could not be sidelined", "error", werr)
		}
		return nil
	}

	for name, p := range schema.Profiles {
		p.Name = name
		s.profiles[name] = p.Normalized()
	}
	return nil
}

func (s *Store) save() error {
	schema := fileSchema{Profiles: s.profiles}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing profiles: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing profiles file: %w", err)
	}
	return nil
}

// Names returns all profile names, sorted.
func (s *Store) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the named profile.
func (s *Store) Get(name string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return domain.Profile{}, err
	}
	p, ok := s.profiles[name]
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: %q", domain.ErrProfileNotFound, name)
	}
	return p, nil
}

// Upsert validates, normalizes, and stores a profile.
func (s *Store) Upsert(profile domain.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	p := profile.Normalized()
	s.profiles[p.Name] = p
	return s.save()
}

// Delete removes a profile. Absent profiles are a no-op.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.profiles[name]; !ok {
		return nil
	}
	delete(s.profiles, name)
	return s.save()
}

// SaveResolvedProject writes a freshly resolved project identity back
// onto the named profile.
func (s *Store) SaveResolvedProject(name string, identity domain.ProjectIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	p, ok := s.profiles[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrProfileNotFound, name)
	}
	p.SetIdentity(identity)
	s.profiles[name] = p
	return s.save()
}

var _ ports.ProfileStore = (*Store)(nil)
