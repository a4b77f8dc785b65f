package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestLoadPreferencesMissingFileYieldsDefaults(t *testing.T) {
	s := newStore(t)
	if got := s.LoadPreferences(); got != entities.DefaultPreferences() {
		t.Fatalf("want defaults, got %+v", got)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := newStore(t)
	want := entities.ReminderPreferences{Enabled: false, LeadMinutes: 45, Sound: false, Voice: true}

	if err := s.SavePreferences(want); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	if got := s.LoadPreferences(); got != want {
		t.Fatalf("want %+v, got %+v", want, got)
	}
}

func TestLoadPreferencesCorruptedLeadKeepsSiblings(t *testing.T) {
	s := newStore(t)
	path := filepath.Join(s.dir, entities.PrefsKey+".json")
	if err := os.WriteFile(path, []byte(`{"enabled":false,"minutesBefore":17,"sound":true,"voice":true}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	got := s.LoadPreferences()
	if got.LeadMinutes != entities.DefaultLeadMinutes {
		t.Fatalf("lead not coerced: %d", got.LeadMinutes)
	}
	if got.Enabled || !got.Sound || !got.Voice {
		t.Fatalf("sibling fields were not preserved: %+v", got)
	}
}

func TestLocationRoundTrip(t *testing.T) {
	s := newStore(t)

	if _, ok := s.LoadLocation(); ok {
		t.Fatal("empty store must not report a location")
	}
	if err := s.SaveLocation(41.0082, 28.9784, "Istanbul"); err != nil {
		t.Fatalf("SaveLocation: %v", err)
	}

	loc, ok := s.LoadLocation()
	if !ok {
		t.Fatal("stored location not found")
	}
	if loc.Latitude != 41.0082 || loc.Longitude != 28.9784 || loc.Name != "Istanbul" {
		t.Fatalf("unexpected stored location: %+v", loc)
	}
	if loc.Timestamp == 0 {
		t.Fatal("timestamp not recorded")
	}
}
