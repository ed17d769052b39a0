// Package di provides dependency injection for service creation.
package di

import (
	"fmt"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/clients/yahoo"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/config"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/benchmark"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/portfolio"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/prices"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/valuation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// InitializeServices creates the price cache and analytics services.
// The container must already hold HistoryDB.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.HistoryDB == nil {
		return fmt.Errorf("container has no history database")
	}

	// Own registry so tests and multiple wirings never collide on the default one
	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.Metrics = prices.NewMetrics(container.Registry)

	container.QuoteProvider = yahoo.NewClient(cfg.ProviderURL, log)

	container.PriceStore = prices.NewStore(container.HistoryDB.Conn(), log)
	container.Fetcher = prices.NewFetcher(
		container.PriceStore,
		container.QuoteProvider,
		prices.FetcherConfig{
			Workers:    cfg.FetchWorkers,
			Pacing:     cfg.Pacing,
			MaxRetries: cfg.MaxRetries,
		},
		container.Metrics,
		log,
	)
	container.PriceService = prices.NewService(container.PriceStore, container.Fetcher, log)

	container.ValuationEngine = valuation.NewEngine(container.PriceStore, log).
		WithPrefetch(container.Fetcher, cfg.BatchDays)
	container.Comparator = benchmark.NewComparator(container.Fetcher, log).
		WithBatchDays(cfg.BatchDays)
	container.Analyzer = portfolio.NewAnalyzer(
		container.ValuationEngine,
		container.Comparator,
		container.PriceStore,
		container.Fetcher,
		cfg.BatchDays,
		log,
	)

	log.Info().
		Int("workers", cfg.FetchWorkers).
		Dur("pacing", cfg.Pacing).
		Int("batch_days", cfg.BatchDays).
		Msg("Services initialized")

	return nil
}
