// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/config"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the maintenance jobs and schedules them on sched.
// The watchlist always includes the configured benchmark.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{}

	symbols := watchlist(cfg)
	instances.RefreshWatchlist = scheduler.NewRefreshWatchlistJob(container.PriceService, symbols, cfg.RefreshDays, cfg.BatchDays)
	instances.RefreshWatchlist.SetLogger(log.With().Str("job", "refresh_watchlist").Logger())

	instances.PruneHistory = scheduler.NewPruneHistoryJob(container.PriceService, cfg.RetentionDays)
	instances.PruneHistory.SetLogger(log.With().Str("job", "prune_history").Logger())

	instances.WALCheckpoints = scheduler.NewCheckWALCheckpointsJob(container.HistoryDB)
	instances.WALCheckpoints.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())

	if sched == nil {
		return instances, nil
	}

	if cfg.RefreshSchedule != "" {
		if err := sched.AddJob(cfg.RefreshSchedule, instances.RefreshWatchlist); err != nil {
			return nil, fmt.Errorf("failed to schedule watchlist refresh: %w", err)
		}
	}
	if cfg.RetentionDays > 0 {
		if err := sched.AddJob("@daily", instances.PruneHistory); err != nil {
			return nil, fmt.Errorf("failed to schedule history prune: %w", err)
		}
	}
	if err := sched.AddJob("@hourly", instances.WALCheckpoints); err != nil {
		return nil, fmt.Errorf("failed to schedule WAL checkpoints: %w", err)
	}

	return instances, nil
}

func watchlist(cfg *config.Config) []string {
	symbols := make([]string, 0, len(cfg.Watchlist)+1)
	seen := make(map[string]bool)
	for _, s := range append(append([]string{}, cfg.Watchlist...), cfg.Benchmark) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	return symbols
}
