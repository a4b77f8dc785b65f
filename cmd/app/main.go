package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/assets"
	"github.com/aliskhannn/azan-reminder/internal/aladhan"
	"github.com/aliskhannn/azan-reminder/internal/background"
	"github.com/aliskhannn/azan-reminder/internal/config"
	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
	"github.com/aliskhannn/azan-reminder/internal/logger"
	"github.com/aliskhannn/azan-reminder/internal/notify"
	"github.com/aliskhannn/azan-reminder/internal/prayer"
	"github.com/aliskhannn/azan-reminder/internal/prefs"
	"github.com/aliskhannn/azan-reminder/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := prefs.NewStore(cfg.Prefs.Dir, zl)
	if err != nil {
		zl.Fatal("failed to open settings store", zap.Error(err))
	}

	// Last fetched location wins over the configured fallback.
	lat, lon, locName := cfg.Location.Latitude, cfg.Location.Longitude, cfg.Location.Name
	if loc, ok := store.LoadLocation(); ok {
		lat, lon, locName = loc.Latitude, loc.Longitude, loc.Name
	}
	zl.Info("using location", zap.String("name", locName), zap.Float64("lat", lat), zap.Float64("lon", lon))

	client := aladhan.New(cfg.Aladhan.BaseURL, cfg.Aladhan.Method, zl)

	player, err := notify.NewSoundPlayer(assets.Ding())
	if err != nil {
		zl.Warn("audio cue disabled", zap.Error(err))
		player = nil
	}
	sink := notify.NewSink(player, zl)

	cache := background.NewShellCache(cfg.Shell.Version, cfg.Shell.Upstream, cfg.Shell.CacheDir, cfg.Shell.Manifest, zl)
	worker := background.NewWorker(cache, sink, zl)
	go worker.Run(ctx)
	// Single client, no waiting tab to coordinate with: activate at once.
	worker.Post(background.Message{Type: background.MsgSkipWaiting})

	exclude := make(map[entities.Event]bool, len(cfg.Reminders.Exclude))
	for _, name := range cfg.Reminders.Exclude {
		exclude[entities.Event(name)] = true
	}

	sched := scheduler.New(sink, worker, exclude, assets.DingPath, zl)
	defer sched.Stop()

	var mu sync.Mutex
	var table *entities.TimeTable

	refresh := func() {
		t, err := client.Timings(ctx, lat, lon, time.Now())
		if err != nil {
			zl.Warn("could not fetch prayer times, keeping previous schedule; check the configured location",
				zap.String("location", locName),
				zap.Error(err),
			)
			return
		}
		if saveErr := store.SaveLocation(lat, lon, locName); saveErr != nil {
			zl.Warn("failed to remember location", zap.Error(saveErr))
		}

		mu.Lock()
		table = t
		mu.Unlock()

		if next, ok := prayer.ResolveNext(t, time.Now()); ok {
			zl.Info("next prayer",
				zap.String("event", string(next.Name)),
				zap.Time("at", next.Time),
				zap.String("in", prayer.FormatRemaining(next.Remaining)),
			)
		}
		sched.Reschedule(t, store.LoadPreferences())
	}
	refresh()

	// Preference edits take effect without restarting.
	if err := store.WatchPreferences(ctx, func(p entities.ReminderPreferences) {
		zl.Info("preferences changed",
			zap.Bool("enabled", p.Enabled),
			zap.Int("lead_minutes", p.LeadMinutes),
		)
		mu.Lock()
		t := table
		mu.Unlock()
		sched.Reschedule(t, p)
	}); err != nil {
		zl.Warn("preference watching unavailable", zap.Error(err))
	}

	// A fresh timetable every midnight keeps tomorrow's reminders armed.
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now) + time.Minute):
				refresh()
			}
		}
	}()

	shell := background.NewShellServer(cache, cfg.Shell.BypassPrefixes, zl)
	go func() {
		zl.Info("shell server listening", zap.String("addr", cfg.Shell.ListenAddr))
		if err := shell.Start(cfg.Shell.ListenAddr); err != nil {
			zl.Info("shell server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shell.Shutdown(shutdownCtx); err != nil {
		zl.Warn("shell server shutdown", zap.Error(err))
	}
}
