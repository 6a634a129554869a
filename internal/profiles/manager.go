// Package profiles manages isolated datasets. Each profile owns a Postgres
// schema; the registry (names plus the active selection) lives in a yaml
// file so it survives restarts.
package profiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/validate"
)

var (
	// ErrDuplicateProfile rejects a second profile with the same name.
	ErrDuplicateProfile = errors.New("a profile with this name already exists")
	// ErrNotFound is returned for operations on a missing profile.
	ErrNotFound = errors.New("profile not found")
	// ErrProtectedProfile rejects renaming or deleting the default
	// profile, and deleting the active one.
	ErrProtectedProfile = errors.New("this profile cannot be modified")
)

// RegistryFileName is the registry's location inside the data directory.
const RegistryFileName = "profiles.yaml"

type registry struct {
	Active   string           `yaml:"active"`
	Profiles []models.Profile `yaml:"profiles"`
}

// Manager loads and mutates the profile registry. All methods are safe for
// concurrent use.
type Manager struct {
	path string

	mu  sync.RWMutex
	reg registry
}

// Open reads the registry, seeding it with the default profile on first run.
func Open(dataDir string) (*Manager, error) {
	m := &Manager{path: filepath.Join(dataDir, RegistryFileName)}

	raw, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		m.reg = registry{
			Active: models.DefaultProfileName,
			Profiles: []models.Profile{{
				Name:   models.DefaultProfileName,
				Schema: schemaFor(models.DefaultProfileName),
			}},
		}
		if err := m.persistLocked(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read profile registry: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &m.reg); err != nil {
			return nil, fmt.Errorf("failed to parse profile registry: %w", err)
		}
	}

	return m, nil
}

// schemaFor derives a Postgres schema name from a profile name. The profile
// alphabet is already filesystem-safe; spaces and dashes become underscores.
func schemaFor(name string) string {
	replaced := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(name))
	return "profile_" + replaced
}

func (m *Manager) persistLocked() error {
	raw, err := yaml.Marshal(m.reg)
	if err != nil {
		return fmt.Errorf("failed to encode profile registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(m.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write profile registry: %w", err)
	}
	return nil
}

// List returns every profile in creation order.
func (m *Manager) List() []models.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Profile, len(m.reg.Profiles))
	copy(out, m.reg.Profiles)
	return out
}

// Active returns the profile currently backing the store.
func (m *Manager) Active() models.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.reg.Profiles {
		if p.Name == m.reg.Active {
			return p
		}
	}
	// the registry always contains its active entry; fall back defensively
	return models.Profile{Name: models.DefaultProfileName, Schema: schemaFor(models.DefaultProfileName)}
}

// Create registers a new, empty profile.
func (m *Manager) Create(name string) (models.Profile, error) {
	canonical, err := validate.ProfileName(name)
	if err != nil {
		return models.Profile{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.reg.Profiles {
		if strings.EqualFold(p.Name, canonical) {
			return models.Profile{}, ErrDuplicateProfile
		}
	}

	profile := models.Profile{Name: canonical, Schema: schemaFor(canonical)}
	m.reg.Profiles = append(m.reg.Profiles, profile)
	if err := m.persistLocked(); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// Rename changes a profile's name. The default profile is immutable; the
// schema name is kept so the underlying data stays put.
func (m *Manager) Rename(oldName, newName string) error {
	if oldName == models.DefaultProfileName {
		return ErrProtectedProfile
	}
	canonical, err := validate.ProfileName(newName)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.reg.Profiles {
		if strings.EqualFold(p.Name, canonical) {
			return ErrDuplicateProfile
		}
	}

	for i := range m.reg.Profiles {
		if m.reg.Profiles[i].Name != oldName {
			continue
		}
		m.reg.Profiles[i].Name = canonical
		if m.reg.Active == oldName {
			m.reg.Active = canonical
		}
		return m.persistLocked()
	}
	return ErrNotFound
}

// Delete removes a profile from the registry. The caller is responsible for
// dropping the schema afterwards.
func (m *Manager) Delete(name string) (models.Profile, error) {
	if name == models.DefaultProfileName {
		return models.Profile{}, ErrProtectedProfile
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if name == m.reg.Active {
		return models.Profile{}, ErrProtectedProfile
	}

	for i, p := range m.reg.Profiles {
		if p.Name != name {
			continue
		}
		m.reg.Profiles = append(m.reg.Profiles[:i], m.reg.Profiles[i+1:]...)
		if err := m.persistLocked(); err != nil {
			return models.Profile{}, err
		}
		return p, nil
	}
	return models.Profile{}, ErrNotFound
}

// SetActive switches the store to another profile.
func (m *Manager) SetActive(name string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.reg.Profiles {
		if p.Name != name {
			continue
		}
		m.reg.Active = name
		if err := m.persistLocked(); err != nil {
			return models.Profile{}, err
		}
		return p, nil
	}
	return models.Profile{}, ErrNotFound
}
