package di

import (
	"context"
	"testing"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/config"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:         t.TempDir(),
		Port:            8001,
		ProviderURL:     "http://127.0.0.1:1/chart",
		BatchDays:       100,
		FetchWorkers:    1,
		RefreshSchedule: "0 30 22 * * MON-FRI",
		RefreshDays:     30,
		Watchlist:       []string{"AAPL", "MSFT", "AAPL"},
		Benchmark:       "^GSPC",
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)
	log := zerolog.Nop()

	container, jobs, err := Wire(cfg, log, scheduler.New(log))
	require.NoError(t, err)
	require.NotNil(t, container)
	require.NotNil(t, jobs)
	t.Cleanup(func() { _ = container.Close() })

	// Verify container is fully populated
	assert.NotNil(t, container.HistoryDB)
	assert.NotNil(t, container.Registry)
	assert.NotNil(t, container.Metrics)
	assert.NotNil(t, container.QuoteProvider)
	assert.NotNil(t, container.PriceStore)
	assert.NotNil(t, container.Fetcher)
	assert.NotNil(t, container.PriceService)
	assert.NotNil(t, container.ValuationEngine)
	assert.NotNil(t, container.Comparator)
	assert.NotNil(t, container.Analyzer)

	// Verify jobs are created
	assert.NotNil(t, jobs.RefreshWatchlist)
	assert.NotNil(t, jobs.PruneHistory)
	assert.NotNil(t, jobs.WALCheckpoints)

	// Schema applied
	assert.NoError(t, container.HistoryDB.HealthCheck(context.Background()))
	var tables int
	err = container.HistoryDB.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('price_history', 'symbol_metadata')",
	).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 2, tables)
}

func TestWire_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshSchedule = "whenever"

	_, _, err := Wire(cfg, zerolog.Nop(), scheduler.New(zerolog.Nop()))
	assert.Error(t, err)
}

func TestWatchlist_IncludesBenchmarkOnce(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "^GSPC"}, watchlist(testConfig(t)))

	cfg := testConfig(t)
	cfg.Watchlist = []string{"^GSPC"}
	assert.Equal(t, []string{"^GSPC"}, watchlist(cfg))
}

func TestRegisterJobs_NilContainer(t *testing.T) {
	_, err := RegisterJobs(nil, testConfig(t), nil, zerolog.Nop())
	assert.Error(t, err)
}
