package prefs

import (
	"path/filepath"
	"testing"

	"github.com/maltehallstrom/boka/internal/constants"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "boka.db"))
	if err := s.Open(); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetUnsetKey(t *testing.T) {
	s := setupStore(t)
	value, err := s.Get("missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "" {
		t.Errorf("unset key = %q, want empty", value)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := setupStore(t)
	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	value, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "v2" {
		t.Errorf("Get = %q, want v2", value)
	}
}

func TestModeFallsBackToDefault(t *testing.T) {
	s := setupStore(t)
	if got := s.Mode(); got != constants.DefaultMode {
		t.Errorf("unset mode = %s, want default", got)
	}

	if err := s.Set(constants.PrefKeyMode, "bogus"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Mode(); got != constants.DefaultMode {
		t.Errorf("unrecognized mode = %s, want default", got)
	}
}

func TestSetModePersists(t *testing.T) {
	s := setupStore(t)
	if err := s.SetMode(constants.ModeFrontDesk); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if got := s.Mode(); got != constants.ModeFrontDesk {
		t.Errorf("Mode = %s, want frontdesk", got)
	}
}
