package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event is one of the day's named prayer events.
type Event string

const (
	Fajr    Event = "Fajr"
	Sunrise Event = "Sunrise"
	Dhuhr   Event = "Dhuhr"
	Asr     Event = "Asr"
	Maghrib Event = "Maghrib"
	Isha    Event = "Isha"
)

// EventOrder is the canonical prayer order used when resolving the next event.
var EventOrder = []Event{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// TimeTable maps the day's prayer events to absolute instants for one
// location. It is built fresh on every successful fetch and never mutated;
// a new fetch supersedes it wholesale.
type TimeTable struct {
	day   time.Time
	times map[Event]time.Time
}

// NewTimeTable anchors the given "HH:MM" timings to the date of day.
// Events with an unparseable time are skipped and reported back so the
// caller can log them; the remaining events still form a usable table.
func NewTimeTable(day time.Time, timings map[string]string) (*TimeTable, []Event) {
	t := &TimeTable{
		day:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
		times: make(map[Event]time.Time, len(EventOrder)),
	}

	var skipped []Event
	for _, ev := range EventOrder {
		raw, ok := timings[string(ev)]
		if !ok {
			continue
		}
		h, m, err := parseClock(raw)
		if err != nil {
			skipped = append(skipped, ev)
			continue
		}
		t.times[ev] = time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
	}

	return t, skipped
}

// Day returns midnight of the date the table belongs to.
func (t *TimeTable) Day() time.Time {
	return t.day
}

// At returns the absolute instant of the given event, if present.
func (t *TimeTable) At(ev Event) (time.Time, bool) {
	at, ok := t.times[ev]
	return at, ok
}

// Events returns the present events in canonical order.
func (t *TimeTable) Events() []Event {
	out := make([]Event, 0, len(t.times))
	for _, ev := range EventOrder {
		if _, ok := t.times[ev]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Len reports how many events the table carries.
func (t *TimeTable) Len() int {
	return len(t.times)
}

// parseClock parses "HH:MM". Some provider responses append a timezone
// suffix like "05:12 (EET)"; anything after the first space is ignored.
func parseClock(raw string) (int, int, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed clock value %q", raw)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed minute in %q", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("clock value %q out of range", raw)
	}

	return h, m, nil
}
