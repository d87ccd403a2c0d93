package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"modwarden/internal/bot"
	"modwarden/internal/config"
	"modwarden/internal/moderation"
	"modwarden/internal/modlog"
	"modwarden/internal/scheduler"
	"modwarden/internal/storage"
	"modwarden/internal/usagestats"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	modLogger := modlog.NewLogger(store, logger)
	usage := usagestats.New(store, logger)
	jobs := scheduler.New(store, logger)

	botSvc, err := bot.New(cfg, logger, store, modLogger, usage)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	engine := moderation.New(store, botSvc.Platform(), jobs, modLogger, logger)
	botSvc.SetEngine(engine)

	jobs.Handle(storage.JobTimeBan, engine.CompleteTimeBan)
	jobs.Handle(storage.JobTimedRestriction, engine.CompleteTimedRestriction)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := jobs.Start(ctx); err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}
	usage.Start(ctx, time.Duration(cfg.Usage.FlushSeconds)*time.Second)

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	botSvc.Close(shutdownCtx)
	jobs.Stop()
	usage.Stop()
}
