package entities

import "time"

// PlannedReminder is a computed, not-yet-fired reminder for one prayer
// event. It is derived from a TimeTable and a lead time and recomputed
// whenever either changes; it is never persisted.
type PlannedReminder struct {
	Event   Event
	FireAt  time.Time
	EventAt time.Time
}
