// Package main is the entry point for the portfolio tracker service.
// It serves the historical price cache and the portfolio analytics over HTTP
// and keeps a watchlist of symbols refreshed in the background.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/config"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/di"
	historicalhandlers "github.com/mecoserra2008/Portfolio-Tracker/internal/modules/historical/handlers"
	portfoliohandlers "github.com/mecoserra2008/Portfolio-Tracker/internal/modules/portfolio/handlers"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/scheduler"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/server"
	"github.com/mecoserra2008/Portfolio-Tracker/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger with config level
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Strs("watchlist", cfg.Watchlist).
		Msg("Starting portfolio tracker")

	// Wire all dependencies using DI container
	sched := scheduler.New(log)
	container, jobs, err := di.Wire(cfg, log, sched)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:        log,
		HistoryDB:  container.HistoryDB,
		Historical: historicalhandlers.NewHandler(container.PriceService, cfg.BatchDays, log),
		Portfolio:  portfoliohandlers.NewHandler(container.Analyzer, cfg.Benchmark, log),
		Gatherer:   container.Registry,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	sched.Start()

	// Warm the watchlist once at startup instead of waiting for the first tick
	go func() {
		if err := sched.RunNow(jobs.RefreshWatchlist); err != nil {
			log.Warn().Err(err).Msg("Initial watchlist refresh failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop scheduling new jobs and wait for running ones
	sched.Stop()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := container.HistoryDB.WALCheckpoint("TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("Final WAL checkpoint failed")
	}

	log.Info().Msg("Server stopped")
}
