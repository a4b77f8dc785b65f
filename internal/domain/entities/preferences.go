package entities

import (
	"encoding/json"
	"time"
)

// PrefsKey is the fixed key the serialized preferences live under.
const PrefsKey = "prayerReminderPrefs"

// AllowedLeadMinutes are the only lead-time values the UI offers. Anything
// else found in storage is a legacy or corrupted value.
var AllowedLeadMinutes = []int{30, 45, 60}

// DefaultLeadMinutes is used whenever a stored lead time is not allowed.
const DefaultLeadMinutes = 30

// ReminderPreferences controls whether and how prayer reminders fire.
type ReminderPreferences struct {
	Enabled     bool `json:"enabled"`
	LeadMinutes int  `json:"minutesBefore"`
	Sound       bool `json:"sound"`
	Voice       bool `json:"voice"`
}

// DefaultPreferences returns the out-of-the-box settings.
func DefaultPreferences() ReminderPreferences {
	return ReminderPreferences{
		Enabled:     true,
		LeadMinutes: DefaultLeadMinutes,
		Sound:       true,
		Voice:       false,
	}
}

// Lead returns the lead time as a duration.
func (p ReminderPreferences) Lead() time.Duration {
	return time.Duration(p.LeadMinutes) * time.Minute
}

// DecodePreferences decodes a stored preferences object field by field.
// Missing or malformed fields fall back to their defaults individually,
// so a bad lead time does not discard the stored sound/voice/enabled
// flags. Completely unreadable input yields the defaults.
func DecodePreferences(raw []byte) ReminderPreferences {
	prefs := DefaultPreferences()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return prefs
	}

	if v, ok := fields["enabled"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			prefs.Enabled = b
		}
	}
	if v, ok := fields["minutesBefore"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil {
			prefs.LeadMinutes = n
		}
	}
	if v, ok := fields["sound"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			prefs.Sound = b
		}
	}
	if v, ok := fields["voice"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			prefs.Voice = b
		}
	}

	if !leadAllowed(prefs.LeadMinutes) {
		prefs.LeadMinutes = DefaultLeadMinutes
	}

	return prefs
}

func leadAllowed(minutes int) bool {
	for _, m := range AllowedLeadMinutes {
		if m == minutes {
			return true
		}
	}
	return false
}
