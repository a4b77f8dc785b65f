// Package scheduler arms one-shot local timers for the day's planned
// reminders and mirrors each of them to the background delivery surface
// so they survive this process going away.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/background"
	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
	"github.com/aliskhannn/azan-reminder/internal/prayer"
)

// Sink delivers a reminder to the user when a local timer expires.
type Sink interface {
	Notify(title, body string, sound, voice bool) error
}

// Surface receives the mirrored schedule descriptors.
type Surface interface {
	Post(msg background.Message)
}

// Scheduler owns the set of pending local timers: at most one per event,
// cleared and rebuilt wholesale on every reschedule. It is constructed
// once at startup and torn down with Stop.
type Scheduler struct {
	sink    Sink
	surface Surface
	exclude map[entities.Event]bool
	sound   string
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	timers map[entities.Event]*time.Timer
}

// New creates a Scheduler. exclude holds events that never get
// reminders; sound is the asset path carried in schedule descriptors.
func New(sink Sink, surface Surface, exclude map[entities.Event]bool, sound string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sink:    sink,
		surface: surface,
		exclude: exclude,
		sound:   sound,
		logger:  logger,
		now:     time.Now,
		timers:  make(map[entities.Event]*time.Timer),
	}
}

// Reschedule replaces the pending timer set from scratch. It is safe to
// call on every table refresh or preference change: all existing timers
// are cancelled first, unconditionally, so no orphaned timer survives
// even when reminders are disabled or the table is gone.
func (s *Scheduler) Reschedule(table *entities.TimeTable, p entities.ReminderPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAllLocked()

	if table == nil || !p.Enabled {
		return
	}

	now := s.now()
	for _, planned := range prayer.Plan(table, p.Lead(), now, s.exclude) {
		ev := planned.Event
		lead := p.LeadMinutes
		sound := p.Sound
		voice := p.Voice

		s.timers[ev] = time.AfterFunc(planned.FireAt.Sub(now), func() {
			s.fire(ev, lead, sound, voice)
		})

		// Mirror the reminder to the background surface so it still
		// fires if this process is gone by then.
		s.surface.Post(background.Message{
			Type:  background.MsgScheduleReminder,
			Label: string(ev),
			Time:  planned.FireAt.UnixMilli(),
			Sound: s.sound,
		})

		s.logger.Info("reminder armed",
			zap.String("event", string(ev)),
			zap.Time("fire_at", planned.FireAt),
			zap.Int("lead_minutes", lead),
		)
	}
}

// Pending reports how many local timers are currently armed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels everything; the scheduler is not usable afterwards within
// the current schedule, but a later Reschedule rebuilds it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
}

func (s *Scheduler) cancelAllLocked() {
	for ev, timer := range s.timers {
		timer.Stop()
		delete(s.timers, ev)
	}
}

// fire runs on the timer goroutine. Every reminder is independent: a
// panicking or failing delivery is contained here and cannot take its
// siblings down with it.
func (s *Scheduler) fire(ev entities.Event, leadMinutes int, sound, voice bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reminder delivery panicked",
				zap.String("event", string(ev)),
				zap.Any("panic", r),
			)
		}
	}()

	s.mu.Lock()
	delete(s.timers, ev)
	s.mu.Unlock()

	title := fmt.Sprintf("%s Prayer Reminder", ev)
	body := fmt.Sprintf("%s prayer is in %d minutes.", ev, leadMinutes)
	if err := s.sink.Notify(title, body, sound, voice); err != nil {
		s.logger.Warn("reminder delivery degraded",
			zap.String("event", string(ev)),
			zap.Error(err),
		)
	}
}
