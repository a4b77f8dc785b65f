// Package sweep implements the server-side reminder path: a periodic
// pass over every registered user that pushes a remote notification for
// any prayer whose lead-adjusted fire time falls inside the current
// window. It is entirely independent of the client scheduler and reaches
// users who are not running the app at all.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
	"github.com/aliskhannn/azan-reminder/internal/push"
)

// CronSpec triggers the sweep every five minutes.
const CronSpec = "*/5 * * * *"

// DefaultTolerance pairs with the five-minute cadence: anything closer
// than this to its fire time counts as due in the current sweep.
const DefaultTolerance = 5 * time.Minute

// DefaultLead is the server-side lead time before each prayer.
const DefaultLead = 60 * time.Minute

// UserRepository lists the registry and prunes dead push tokens.
type UserRepository interface {
	ListRegistered(ctx context.Context) ([]*entities.RegisteredUser, error)
	RemovePushToken(ctx context.Context, userID int64) error
}

// TimetableProvider fetches a user's location-specific timetable.
type TimetableProvider interface {
	TimingsByCity(ctx context.Context, city, country string, day time.Time) (*entities.TimeTable, error)
}

// Pusher delivers one remote notification to a destination token.
type Pusher interface {
	Send(ctx context.Context, token, title, body string) error
}

// Job is stateless between invocations: everything it needs lives in the
// user registry, so a missed or doubled trigger only affects that run.
type Job struct {
	users     UserRepository
	provider  TimetableProvider
	pusher    Pusher
	lead      time.Duration
	tolerance time.Duration
	exclude   map[entities.Event]bool
	logger    *zap.Logger
	now       func() time.Time
}

// New wires a sweep job. Non-positive lead or tolerance select the
// defaults.
func New(
	users UserRepository,
	provider TimetableProvider,
	pusher Pusher,
	lead, tolerance time.Duration,
	exclude map[entities.Event]bool,
	logger *zap.Logger,
) *Job {
	if lead <= 0 {
		lead = DefaultLead
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Job{
		users:     users,
		provider:  provider,
		pusher:    pusher,
		lead:      lead,
		tolerance: tolerance,
		exclude:   exclude,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs the sweep on the five-minute cron trigger until ctx is
// canceled. Failures are logged, never returned: one bad cycle must not
// take the job runner down.
func (j *Job) Start(ctx context.Context) {
	j.logger.Info("reminder sweep started", zap.String("cron", CronSpec))

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(CronSpec, func() {
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.Error("sweep cycle failed", zap.Error(err))
		}
	})
	if err != nil {
		j.logger.Error("failed to add cron job", zap.Error(err))
		return
	}

	c.Start()
	<-ctx.Done()
	c.Stop()

	j.logger.Info("reminder sweep stopped")
}

// RunOnce performs one sweep over the whole registry and reports how
// many notifications went out. Per-user trouble is logged and isolated;
// only a failure to list the registry aborts the cycle.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	now := j.now()
	j.logger.Info("checking reminder windows", zap.Time("now", now))

	users, err := j.users.ListRegistered(ctx)
	if err != nil {
		return 0, fmt.Errorf("list registered users: %w", err)
	}

	sent := 0
	for _, u := range users {
		if !u.HasCompleteProfile() {
			continue
		}
		n, err := j.processUser(ctx, u, now)
		if err != nil {
			j.logger.Error("user sweep failed",
				zap.Int64("user_id", u.ID),
				zap.String("city", u.City),
				zap.String("country", u.Country),
				zap.Error(err),
			)
			continue
		}
		sent += n
	}

	j.logger.Info("sweep cycle done", zap.Int("sent", sent), zap.Int("users", len(users)))
	return sent, nil
}

func (j *Job) processUser(ctx context.Context, u *entities.RegisteredUser, now time.Time) (int, error) {
	table, err := j.provider.TimingsByCity(ctx, u.City, u.Country, now)
	if err != nil {
		return 0, fmt.Errorf("fetch timings: %w", err)
	}

	sent := 0
	for _, ev := range table.Events() {
		if j.exclude[ev] {
			continue
		}
		at, _ := table.At(ev)
		remindAt := at.Add(-j.lead)
		if !withinWindow(now, remindAt, j.tolerance) {
			continue
		}

		title := fmt.Sprintf("%s Prayer Reminder", ev)
		body := fmt.Sprintf("%s is in %d minutes (%s, %s).", ev, int(j.lead.Minutes()), u.City, u.Country)

		if err := j.pusher.Send(ctx, u.PushToken, title, body); err != nil {
			if errors.Is(err, push.ErrInvalidToken) {
				if rmErr := j.users.RemovePushToken(ctx, u.ID); rmErr != nil {
					j.logger.Error("failed to prune dead token",
						zap.Int64("user_id", u.ID), zap.Error(rmErr))
				} else {
					j.logger.Warn("removed invalid push token", zap.Int64("user_id", u.ID))
				}
				// The remaining events cannot be delivered either.
				return sent, nil
			}
			j.logger.Error("push failed",
				zap.Int64("user_id", u.ID),
				zap.String("event", string(ev)),
				zap.Error(err),
			)
			continue
		}

		sent++
		j.logger.Info("reminder pushed",
			zap.Int64("user_id", u.ID),
			zap.String("event", string(ev)),
			zap.Time("remind_at", remindAt),
		)
	}

	return sent, nil
}

// withinWindow reports whether target is closer than tolerance to now,
// on either side.
func withinWindow(now, target time.Time, tolerance time.Duration) bool {
	diff := now.Sub(target)
	if diff < 0 {
		diff = -diff
	}
	return diff < tolerance
}
