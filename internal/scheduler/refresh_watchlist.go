package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/rs/zerolog"
)

// BulkFetcher is satisfied by *prices.Service
type BulkFetcher interface {
	BulkFetch(ctx context.Context, symbols []string, start, end time.Time, batchDays int) map[string]error
}

// RefreshWatchlistJob keeps the trailing window of every watched symbol cached
type RefreshWatchlistJob struct {
	log       zerolog.Logger
	fetcher   BulkFetcher
	symbols   []string
	days      int
	batchDays int
	timeout   time.Duration
	today     func() time.Time
}

// NewRefreshWatchlistJob creates a new RefreshWatchlistJob
func NewRefreshWatchlistJob(fetcher BulkFetcher, symbols []string, days, batchDays int) *RefreshWatchlistJob {
	return &RefreshWatchlistJob{
		log:       zerolog.Nop(),
		fetcher:   fetcher,
		symbols:   symbols,
		days:      days,
		batchDays: batchDays,
		timeout:   30 * time.Minute,
		today:     utils.Today,
	}
}

// SetLogger sets the logger for the job
func (j *RefreshWatchlistJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *RefreshWatchlistJob) Name() string {
	return "refresh_watchlist"
}

// Run fetches whatever is missing from [today-days, today] for each symbol.
// Returns an error only when every symbol failed.
func (j *RefreshWatchlistJob) Run() error {
	if len(j.symbols) == 0 {
		j.log.Debug().Msg("Watchlist is empty, nothing to refresh")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	end := j.today()
	start := utils.AddDays(end, -j.days)

	failures := j.fetcher.BulkFetch(ctx, j.symbols, start, end, j.batchDays)

	j.log.Info().
		Int("symbols", len(j.symbols)).
		Int("failed", len(failures)).
		Str("from", utils.FormatDate(start)).
		Str("to", utils.FormatDate(end)).
		Msg("Watchlist refresh completed")

	if len(failures) == len(j.symbols) {
		return fmt.Errorf("refresh failed for all %d symbols", len(failures))
	}
	return nil
}
