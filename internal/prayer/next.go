// Package prayer holds the pure scheduling arithmetic: resolving the next
// prayer event from a day's timetable and planning reminder fire times.
package prayer

import (
	"fmt"
	"time"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
)

// NextEvent is the soonest upcoming prayer event relative to some instant.
type NextEvent struct {
	Name      entities.Event
	Time      time.Time
	Remaining time.Duration
}

// ResolveNext walks the day's events in canonical order and returns the
// first whose instant is strictly after now. An event landing exactly on
// now counts as already past. When the whole day has passed it wraps to
// the first event of the following day. ok is false only for an empty
// table.
func ResolveNext(table *entities.TimeTable, now time.Time) (NextEvent, bool) {
	if table == nil || table.Len() == 0 {
		return NextEvent{}, false
	}

	for _, ev := range entities.EventOrder {
		at, present := table.At(ev)
		if !present {
			continue
		}
		if at.After(now) {
			return NextEvent{Name: ev, Time: at, Remaining: at.Sub(now)}, true
		}
	}

	// All of today's events have passed: wrap to tomorrow's first event.
	first := table.Events()[0]
	at, _ := table.At(first)
	tomorrow := at.AddDate(0, 0, 1)
	return NextEvent{Name: first, Time: tomorrow, Remaining: tomorrow.Sub(now)}, true
}

// FormatRemaining renders a countdown like "1h 05m 09s"; the hour part is
// omitted when zero. Negative durations render as "00m 00s".
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "00m 00s"
	}

	total := int(d / time.Second)
	hours := total / 3600
	total %= 3600
	minutes := total / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02dm %02ds", minutes, seconds)
}
