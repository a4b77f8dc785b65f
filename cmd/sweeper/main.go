package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/aladhan"
	"github.com/aliskhannn/azan-reminder/internal/config"
	"github.com/aliskhannn/azan-reminder/internal/delivery/httpapi"
	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
	"github.com/aliskhannn/azan-reminder/internal/infra/postgres"
	"github.com/aliskhannn/azan-reminder/internal/infra/postgres/repository"
	"github.com/aliskhannn/azan-reminder/internal/logger"
	"github.com/aliskhannn/azan-reminder/internal/push"
	"github.com/aliskhannn/azan-reminder/internal/sweep"
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

	dsn, err := cfg.DB.DSN()
	if err != nil {
		zl.Fatal("database url not configured", zap.Error(err))
	}
	serverKey, err := cfg.Push.Key()
	if err != nil {
		zl.Fatal("push server key not configured", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	provider := aladhan.New(cfg.Aladhan.BaseURL, cfg.Aladhan.Method, zl)
	pusher := push.New(cfg.Push.Endpoint, serverKey, zl)

	exclude := make(map[entities.Event]bool, len(cfg.Reminders.Exclude))
	for _, name := range cfg.Reminders.Exclude {
		exclude[entities.Event(name)] = true
	}

	job := sweep.New(
		userRepo,
		provider,
		pusher,
		time.Duration(cfg.Reminders.LeadMinutes)*time.Minute,
		time.Duration(cfg.Reminders.ToleranceMinutes)*time.Minute,
		exclude,
		zl,
	)

	api := httpapi.NewServer(userRepo, zl)
	go func() {
		zl.Info("registration api listening", zap.String("addr", cfg.Push.ListenAddr))
		if err := api.Start(cfg.Push.ListenAddr); err != nil {
			zl.Info("registration api stopped", zap.Error(err))
		}
	}()

	job.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		zl.Warn("registration api shutdown", zap.Error(err))
	}
}
