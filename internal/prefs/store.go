// Package prefs persists the user's reminder preferences and last-used
// location as single serialized objects under fixed keys in a local
// settings directory.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
)

// LocationKey is the fixed key the last-fetched location lives under.
const LocationKey = "prayerAppLastLocation"

// StoredLocation is the last location timings were fetched for, kept so
// a restart can reuse it without asking for the position again.
type StoredLocation struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Name      string  `json:"name"`
	Timestamp int64   `json:"timestamp"`
}

// Store reads and writes settings files under one directory, one file
// per key. Absent or unreadable entries fall back to defaults; reminder
// preferences additionally fall back field by field.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates the settings directory if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// LoadPreferences reads the stored reminder preferences. A missing or
// corrupted file yields defaults; individual bad fields are corrected
// without discarding their siblings.
func (s *Store) LoadPreferences() entities.ReminderPreferences {
	raw, err := os.ReadFile(s.keyPath(entities.PrefsKey))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("unreadable preferences, using defaults", zap.Error(err))
		}
		return entities.DefaultPreferences()
	}
	return entities.DecodePreferences(raw)
}

// SavePreferences writes the preferences atomically.
func (s *Store) SavePreferences(p entities.ReminderPreferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return s.writeKey(entities.PrefsKey, raw)
}

// LoadLocation reads the stored location; ok is false when nothing
// usable is stored.
func (s *Store) LoadLocation() (StoredLocation, bool) {
	raw, err := os.ReadFile(s.keyPath(LocationKey))
	if err != nil {
		return StoredLocation{}, false
	}
	var loc StoredLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		s.logger.Warn("unreadable stored location", zap.Error(err))
		return StoredLocation{}, false
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return StoredLocation{}, false
	}
	return loc, true
}

// SaveLocation records the location timings were last fetched for.
func (s *Store) SaveLocation(lat, lon float64, name string) error {
	raw, err := json.Marshal(StoredLocation{
		Latitude:  lat,
		Longitude: lon,
		Name:      name,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	return s.writeKey(LocationKey, raw)
}

func (s *Store) writeKey(key string, raw []byte) error {
	path := s.keyPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// WatchPreferences invokes onChange with freshly loaded preferences
// whenever the preferences file is rewritten, until ctx is canceled.
// External edits and SavePreferences calls both trigger it.
func (s *Store) WatchPreferences(ctx context.Context, onChange func(entities.ReminderPreferences)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch settings dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		target := s.keyPath(entities.PrefsKey)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				onChange(s.LoadPreferences())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("preferences watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
