// Package di provides dependency injection type definitions.
package di

import (
	"github.com/mecoserra2008/Portfolio-Tracker/internal/clients/yahoo"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/database"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/benchmark"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/portfolio"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/prices"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/valuation"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
)

// Container holds all dependencies for the application.
// It is created by Wire() and handed to the server and jobs.
type Container struct {
	// Databases
	HistoryDB *database.DB

	// Metrics
	Registry *prometheus.Registry
	Metrics  *prices.Metrics

	// Clients
	QuoteProvider *yahoo.Client

	// Price cache
	PriceStore   *prices.Store
	Fetcher      *prices.Fetcher
	PriceService *prices.Service

	// Analytics
	ValuationEngine *valuation.Engine
	Comparator      *benchmark.Comparator
	Analyzer        *portfolio.Analyzer
}

// Close releases the resources held by the container
func (c *Container) Close() error {
	if c == nil || c.HistoryDB == nil {
		return nil
	}
	return c.HistoryDB.Close()
}

// JobInstances holds the scheduled jobs for manual triggering
type JobInstances struct {
	RefreshWatchlist *scheduler.RefreshWatchlistJob
	PruneHistory     *scheduler.PruneHistoryJob
	WALCheckpoints   *scheduler.CheckWALCheckpointsJob
}
