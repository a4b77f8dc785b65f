// Package background runs the long-lived delivery surface that outlives
// any single reminder schedule: it receives schedule descriptors from
// the foreground scheduler over a message channel, fires them on its own
// clock, and keeps an offline cache of the application shell.
package background

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the worker's lifecycle phase.
type State int

const (
	StateInstalling State = iota
	StateInstalled
	StateActivated
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivated:
		return "activated"
	}
	return "unknown"
}

// Sink raises the user-visible notification once a reminder expires.
type Sink interface {
	Notify(title, body string, sound, voice bool) error
}

// Worker receives schedule messages and delivers reminders independently
// of the component that posted them. Once a reminder is accepted it
// cannot be unscheduled; the only communication is the inbound message
// channel.
type Worker struct {
	cache  *ShellCache
	sink   Sink
	logger *zap.Logger

	msgs chan Message
	now  func() time.Time

	mu    sync.Mutex
	state State
}

// NewWorker wires the delivery surface. cache may be nil when the shell
// cache is not wanted (tests, sweeper).
func NewWorker(cache *ShellCache, sink Sink, logger *zap.Logger) *Worker {
	return &Worker{
		cache:  cache,
		sink:   sink,
		logger: logger,
		msgs:   make(chan Message, 64),
		now:    time.Now,
	}
}

// Post hands a message to the worker without waiting for delivery. A
// full queue drops the message; reminders are best-effort by contract.
func (w *Worker) Post(msg Message) {
	select {
	case w.msgs <- msg:
	default:
		w.logger.Warn("message queue full, dropping", zap.String("type", msg.Type))
	}
}

// State reports the current lifecycle phase.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Run drives the install → installed → activated lifecycle and then
// serves messages until ctx is canceled. Install pre-fetches the shell
// manifest; activation purges caches left by prior versions.
func (w *Worker) Run(ctx context.Context) {
	w.setState(StateInstalling)
	if w.cache != nil {
		w.cache.Install(ctx)
	}
	w.setState(StateInstalled)

	// The worker now waits: reminders are accepted and the cached shell
	// is already served, but caches left by prior versions are only
	// purged once a SKIP_WAITING signal pushes the surface past the
	// waiting state.
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("background worker stopping")
			return
		case msg := <-w.msgs:
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg Message) {
	switch msg.Type {
	case MsgScheduleReminder:
		w.scheduleReminder(msg)
	case MsgSkipWaiting:
		w.activate(ctx)
	default:
		w.logger.Debug("ignoring unknown message", zap.String("type", msg.Type))
	}
}

// scheduleReminder re-derives the remaining delay from the absolute fire
// instant. A descriptor whose window has already passed is dropped: a
// late reminder is worse than none.
func (w *Worker) scheduleReminder(msg Message) {
	fireAt := time.UnixMilli(msg.Time)
	delay := fireAt.Sub(w.now())
	if delay <= 0 {
		w.logger.Debug("reminder window already passed, dropping",
			zap.String("label", msg.Label),
			zap.Time("fire_at", fireAt),
		)
		return
	}

	w.logger.Info("reminder accepted",
		zap.String("label", msg.Label),
		zap.Duration("in", delay),
	)

	sound := msg.Sound != ""
	label := msg.Label
	time.AfterFunc(delay, func() {
		if err := w.sink.Notify(label+" Prayer Reminder", label, sound, false); err != nil {
			w.logger.Warn("background delivery degraded", zap.String("label", label), zap.Error(err))
		}
	})
}

func (w *Worker) activate(ctx context.Context) {
	w.mu.Lock()
	if w.state == StateActivated {
		w.mu.Unlock()
		return
	}
	w.state = StateActivated
	w.mu.Unlock()

	if w.cache != nil {
		w.cache.Activate(ctx)
	}
	w.logger.Info("background worker activated")
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}
