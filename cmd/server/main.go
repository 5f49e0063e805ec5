// Package main is the entry point for the bazaar craft-flip tracker.
// It tracks one craftable item at a time, polls the bazaar and reports the
// profit of crafting it from bought ingredients.
//
// Startup sequence:
// 1. Load configuration (environment, api.env, .env)
// 2. Initialize logging
// 3. Wire dependencies (client-data cache, clients, services, jobs)
// 4. Start the display loop, scheduler and HTTP server
// 5. Load the item catalog and optionally start tracking TRACK_ON_START
// 6. Wait for a shutdown signal and shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/flipper/internal/config"
	"github.com/aristath/flipper/internal/di"
	"github.com/aristath/flipper/internal/modules/session"
	"github.com/aristath/flipper/internal/server"
	"github.com/aristath/flipper/pkg/logger"
	"github.com/rs/zerolog"
)

const catalogLoadTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "flipper",
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting flip tracker")

	// Cancelling ctx stops the polling worker and the display loop.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	loopDone := make(chan struct{})
	go func() {
		container.Loop.Run(ctx)
		close(loopDone)
	}()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Port:      cfg.Port,
		Container: container,
		Jobs:      jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	go bootstrap(ctx, container, cfg, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancel()
	<-loopDone

	log.Info().Msg("Server stopped")
}

// bootstrap loads the item catalog, applies the initial budget and starts
// tracking TRACK_ON_START when set. Failures are logged; the server stays up.
func bootstrap(ctx context.Context, container *di.Container, cfg *config.Config, log zerolog.Logger) {
	loadCtx, cancel := context.WithTimeout(ctx, catalogLoadTimeout)
	defer cancel()

	if err := container.MarketService.LoadCatalog(loadCtx); err != nil {
		log.Warn().Err(err).Msg("Item catalog unavailable, names will not be corrected")
	} else {
		log.Info().Int("items", container.MarketService.Catalog().Len()).Msg("Item catalog loaded")
	}

	if cfg.InitialBudget != "" {
		budget, err := container.Loop.SetBudget(ctx, cfg.InitialBudget)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to apply initial budget")
		} else {
			log.Info().Float64("budget", budget).Msg("Initial budget set")
		}
	}

	if cfg.TrackOnStart == "" {
		return
	}

	confirm := session.RejectAll
	if cfg.AutoAcceptCorrections {
		confirm = session.AcceptAll
	}
	sess, _, err := container.Loop.StartTracking(ctx, cfg.TrackOnStart, confirm)
	if err != nil {
		log.Error().Err(err).Str("item", cfg.TrackOnStart).Msg("Failed to start tracking on boot")
		return
	}
	log.Info().Str("item", sess.Target.String()).Str("session", sess.ID).Msg("Tracking started on boot")
}
