// Package main contains the entrypoint for the amora chat backend.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amorahq/amora/internal/chat"
	"github.com/amorahq/amora/internal/config"
	"github.com/amorahq/amora/internal/database"
	"github.com/amorahq/amora/internal/fal"
	"github.com/amorahq/amora/internal/gemini"
	"github.com/amorahq/amora/internal/logger"
	"github.com/amorahq/amora/internal/scheduler"
	"github.com/amorahq/amora/internal/server"
	"github.com/amorahq/amora/internal/tasks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, db, model clients,
// scheduler, http server), handles graceful shutdown, and returns the
// process exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	modelClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}
	imageClient := fal.NewClient(cfg.Fal, log)
	archiver := database.NewArchiver(store, log)

	orchestrator := chat.NewOrchestrator(modelClient, imageClient, archiver, log)

	sched, err := scheduler.New(log, map[string]scheduler.Entry{
		"image_maintenance": {
			Schedule: cfg.Images.MaintenanceSchedule,
			Task: tasks.NewImageMaintenanceTask(tasks.Deps{
				Logger:    log,
				Store:     store,
				Retention: cfg.Images.Retention,
			}),
		},
	})
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	srv := server.New(cfg.Server, server.Deps{
		Logger:   log,
		Chat:     orchestrator,
		Images:   imageClient,
		Store:    store,
		Recorder: archiver,
	})

	if err := sched.Start(); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		return 1
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error("Scheduler shutdown failed", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("amora started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Server stopped due to error", "error", err)
		return 1
	}

	log.Info("Stopped gracefully")
	return 0
}
