package prayer

import (
	"testing"
	"time"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
)

var testTimings = map[string]string{
	"Fajr":    "06:00",
	"Sunrise": "07:25",
	"Dhuhr":   "12:00",
	"Asr":     "15:30",
	"Maghrib": "18:45",
	"Isha":    "20:00",
}

func mustTable(t *testing.T, timings map[string]string) *entities.TimeTable {
	t.Helper()
	day := time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC)
	table, skipped := entities.NewTimeTable(day, timings)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped events: %v", skipped)
	}
	return table
}

func at(t *testing.T, hh, mm int) time.Time {
	t.Helper()
	return time.Date(2025, time.November, 3, hh, mm, 0, 0, time.UTC)
}

func TestResolveNextBeforeFirstEvent(t *testing.T) {
	table := mustTable(t, testTimings)
	now := at(t, 4, 30)

	next, ok := ResolveNext(table, now)
	if !ok {
		t.Fatal("expected a next event")
	}
	if next.Name != entities.Fajr {
		t.Fatalf("want Fajr, got %s", next.Name)
	}
	want := 90 * time.Minute
	if next.Remaining != want {
		t.Fatalf("remaining mismatch: want %v, got %v", want, next.Remaining)
	}
}

func TestResolveNextMidday(t *testing.T) {
	table := mustTable(t, testTimings)
	now := at(t, 13, 15)

	next, ok := ResolveNext(table, now)
	if !ok {
		t.Fatal("expected a next event")
	}
	if next.Name != entities.Asr {
		t.Fatalf("want Asr, got %s", next.Name)
	}
}

func TestResolveNextEventExactlyNowIsPast(t *testing.T) {
	table := mustTable(t, testTimings)
	now := at(t, 12, 0) // exactly Dhuhr

	next, ok := ResolveNext(table, now)
	if !ok {
		t.Fatal("expected a next event")
	}
	if next.Name != entities.Asr {
		t.Fatalf("want Asr (Dhuhr at now counts as past), got %s", next.Name)
	}
}

func TestResolveNextWrapsToTomorrowsFajr(t *testing.T) {
	table := mustTable(t, testTimings)
	now := at(t, 21, 30) // after Isha

	next, ok := ResolveNext(table, now)
	if !ok {
		t.Fatal("expected a next event")
	}
	if next.Name != entities.Fajr {
		t.Fatalf("want Fajr, got %s", next.Name)
	}
	wantTime := time.Date(2025, time.November, 4, 6, 0, 0, 0, time.UTC)
	if !next.Time.Equal(wantTime) {
		t.Fatalf("want tomorrow's Fajr %v, got %v", wantTime, next.Time)
	}
	if !next.Time.After(now) {
		t.Fatal("resolved event must never be in the past")
	}
	if next.Remaining != wantTime.Sub(now) {
		t.Fatalf("remaining mismatch: want %v, got %v", wantTime.Sub(now), next.Remaining)
	}
}

func TestResolveNextEmptyTable(t *testing.T) {
	table, _ := entities.NewTimeTable(at(t, 0, 0), nil)
	if _, ok := ResolveNext(table, at(t, 12, 0)); ok {
		t.Fatal("empty table must not resolve an event")
	}
	if _, ok := ResolveNext(nil, at(t, 12, 0)); ok {
		t.Fatal("nil table must not resolve an event")
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Minute, "00m 00s"},
		{0, "00m 00s"},
		{9 * time.Second, "00m 09s"},
		{5*time.Minute + 9*time.Second, "05m 09s"},
		{time.Hour + 5*time.Minute + 9*time.Second, "1h 05m 09s"},
		{26 * time.Hour, "26h 00m 00s"},
	}
	for _, tc := range tests {
		if got := FormatRemaining(tc.d); got != tc.want {
			t.Fatalf("FormatRemaining(%v): want %q, got %q", tc.d, tc.want, got)
		}
	}
}
