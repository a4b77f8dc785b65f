package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/background"
	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
)

type fakeSink struct {
	mu     sync.Mutex
	bodies []string
	fail   bool
}

func (f *fakeSink) Notify(title, body string, sound, voice bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, body)
	if f.fail {
		return errors.New("speech synthesis unsupported")
	}
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

type fakeSurface struct {
	mu   sync.Mutex
	msgs []background.Message
}

func (f *fakeSurface) Post(msg background.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func (f *fakeSurface) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func futureTable(t *testing.T) *entities.TimeTable {
	t.Helper()
	day := time.Now().Add(24 * time.Hour)
	table, skipped := entities.NewTimeTable(day, map[string]string{
		"Fajr":    "06:00",
		"Sunrise": "07:25",
		"Dhuhr":   "12:00",
		"Asr":     "15:30",
		"Maghrib": "18:45",
		"Isha":    "20:00",
	})
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped events: %v", skipped)
	}
	return table
}

func enabledPrefs() entities.ReminderPreferences {
	return entities.ReminderPreferences{Enabled: true, LeadMinutes: 30, Sound: true}
}

func newScheduler(sink Sink, surface Surface) *Scheduler {
	exclude := map[entities.Event]bool{entities.Sunrise: true}
	return New(sink, surface, exclude, "/ding.wav", zap.NewNop())
}

func TestRescheduleIsIdempotent(t *testing.T) {
	sink := &fakeSink{}
	surface := &fakeSurface{}
	s := newScheduler(sink, surface)
	defer s.Stop()

	table := futureTable(t)
	prefs := enabledPrefs()

	for i := 0; i < 5; i++ {
		s.Reschedule(table, prefs)
	}

	// Six events minus the excluded Sunrise, all a day in the future.
	if got := s.Pending(); got != 5 {
		t.Fatalf("want 5 pending timers regardless of reschedule count, got %d", got)
	}
}

func TestDisablingClearsAllTimers(t *testing.T) {
	sink := &fakeSink{}
	surface := &fakeSurface{}
	s := newScheduler(sink, surface)
	defer s.Stop()

	table := futureTable(t)
	s.Reschedule(table, enabledPrefs())
	if s.Pending() == 0 {
		t.Fatal("precondition: timers armed")
	}

	prefs := enabledPrefs()
	prefs.Enabled = false
	s.Reschedule(table, prefs)

	if got := s.Pending(); got != 0 {
		t.Fatalf("disabled reschedule must leave nothing armed, got %d", got)
	}
}

func TestNilTableClearsAllTimers(t *testing.T) {
	sink := &fakeSink{}
	surface := &fakeSurface{}
	s := newScheduler(sink, surface)
	defer s.Stop()

	s.Reschedule(futureTable(t), enabledPrefs())
	s.Reschedule(nil, enabledPrefs())

	if got := s.Pending(); got != 0 {
		t.Fatalf("missing table must leave nothing armed, got %d", got)
	}
}

func TestEveryPlannedReminderIsMirroredToSurface(t *testing.T) {
	sink := &fakeSink{}
	surface := &fakeSurface{}
	s := newScheduler(sink, surface)
	defer s.Stop()

	s.Reschedule(futureTable(t), enabledPrefs())

	if got := surface.count(); got != 5 {
		t.Fatalf("want 5 mirrored descriptors, got %d", got)
	}
	surface.mu.Lock()
	defer surface.mu.Unlock()
	for _, msg := range surface.msgs {
		if msg.Type != background.MsgScheduleReminder {
			t.Fatalf("unexpected message type %q", msg.Type)
		}
		if msg.Sound != "/ding.wav" {
			t.Fatalf("descriptor missing sound asset: %+v", msg)
		}
		if time.UnixMilli(msg.Time).Before(time.Now()) {
			t.Fatalf("descriptor fire time in the past: %+v", msg)
		}
	}
}

func TestTimerFiresAndLeavesThePendingSet(t *testing.T) {
	sink := &fakeSink{}
	surface := &fakeSurface{}
	s := newScheduler(sink, surface)
	defer s.Stop()

	// Arm the expiry path directly with a short delay; minute-grained
	// timetables cannot express a fire instant milliseconds away.
	s.mu.Lock()
	s.timers[entities.Isha] = time.AfterFunc(30*time.Millisecond, func() {
		s.fire(entities.Isha, 30, false, false)
	})
	s.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if sink.count() != 1 {
		t.Fatalf("want one delivery, got %d", sink.count())
	}
	if got := s.Pending(); got != 0 {
		t.Fatalf("fired timer must leave the pending set, got %d", got)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.bodies[0] != "Isha prayer is in 30 minutes." {
		t.Fatalf("unexpected reminder body %q", sink.bodies[0])
	}
}

func TestSinkFailureDoesNotDisturbSiblings(t *testing.T) {
	sink := &fakeSink{fail: true}
	surface := &fakeSurface{}
	s := newScheduler(sink, surface)
	defer s.Stop()

	s.mu.Lock()
	for _, ev := range []entities.Event{entities.Maghrib, entities.Isha} {
		ev := ev
		s.timers[ev] = time.AfterFunc(20*time.Millisecond, func() {
			s.fire(ev, 45, true, true)
		})
	}
	s.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if got := sink.count(); got != 2 {
		t.Fatalf("a failing delivery must not block its sibling, got %d of 2", got)
	}
}
