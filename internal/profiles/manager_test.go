package profiles

import (
	"errors"
	"testing"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/validate"
)

func openManager(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return m
}

func TestOpenSeedsDefaultProfile(t *testing.T) {
	m := openManager(t)

	active := m.Active()
	if active.Name != models.DefaultProfileName {
		t.Errorf("active profile = %q, want %q", active.Name, models.DefaultProfileName)
	}
	if len(m.List()) != 1 {
		t.Errorf("len(List()) = %d, want 1", len(m.List()))
	}
}

func TestRegistrySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := m.Create("Spring 2026"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := m.SetActive("Spring 2026"); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if got := reopened.Active().Name; got != "Spring 2026" {
		t.Errorf("active after reopen = %q, want %q", got, "Spring 2026")
	}
	if len(reopened.List()) != 2 {
		t.Errorf("len(List()) after reopen = %d, want 2", len(reopened.List()))
	}
}

func TestCreateRejectsBadNames(t *testing.T) {
	m := openManager(t)

	if _, err := m.Create("nope/slash"); !errors.Is(err, validate.ErrInvalidProfileName) {
		t.Errorf("Create(bad name) error = %v, want ErrInvalidProfileName", err)
	}
	if _, err := m.Create("travel"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := m.Create("Travel"); !errors.Is(err, ErrDuplicateProfile) {
		t.Errorf("Create(case-insensitive dup) error = %v, want ErrDuplicateProfile", err)
	}
}

func TestProtectedProfiles(t *testing.T) {
	m := openManager(t)
	if _, err := m.Create("extra"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := m.Rename(models.DefaultProfileName, "renamed"); !errors.Is(err, ErrProtectedProfile) {
		t.Errorf("Rename(default) error = %v, want ErrProtectedProfile", err)
	}
	if _, err := m.Delete(models.DefaultProfileName); !errors.Is(err, ErrProtectedProfile) {
		t.Errorf("Delete(default) error = %v, want ErrProtectedProfile", err)
	}

	if _, err := m.SetActive("extra"); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if _, err := m.Delete("extra"); !errors.Is(err, ErrProtectedProfile) {
		t.Errorf("Delete(active) error = %v, want ErrProtectedProfile", err)
	}

	// switch away, then deleting works
	if _, err := m.SetActive(models.DefaultProfileName); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if _, err := m.Delete("extra"); err != nil {
		t.Errorf("Delete(inactive) error = %v", err)
	}
}

func TestRenameKeepsSchema(t *testing.T) {
	m := openManager(t)
	created, err := m.Create("travel")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := m.Rename("travel", "travel v2"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	for _, p := range m.List() {
		if p.Name == "travel v2" {
			if p.Schema != created.Schema {
				t.Errorf("schema changed on rename: %q -> %q", created.Schema, p.Schema)
			}
			return
		}
	}
	t.Error("renamed profile not found")
}
