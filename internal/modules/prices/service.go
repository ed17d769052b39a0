package prices

import (
	"context"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/rs/zerolog"
)

// openEnd bounds reads that have no upper date
var openEnd = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// Service is the query surface other modules and the HTTP layer use
type Service struct {
	store   *Store
	fetcher *Fetcher
	log     zerolog.Logger
	today   func() time.Time
}

// NewService creates the price query service
func NewService(store *Store, fetcher *Fetcher, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		log:     log.With().Str("service", "prices").Logger(),
		today:   utils.Today,
	}
}

// GetHistoricalData returns cached points for symbol. Zero start or end
// leaves that side unbounded. It never calls the provider.
func (s *Service) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	if end.IsZero() {
		end = openEnd
	}
	return s.store.Read(ctx, symbol, start, end)
}

// GetLatestPrice returns the most recent cached close, or nil when nothing
// is cached for symbol.
func (s *Service) GetLatestPrice(ctx context.Context, symbol string) (*domain.PricePoint, error) {
	return s.store.Latest(ctx, symbol)
}

// GetDatabaseStats summarizes the cache
func (s *Service) GetDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	return s.store.Stats(ctx)
}

// FetchHistoricalData fills [start, end] from the provider where not cached and
// returns the cached points. Zero end means today; batchDays <= 0 means 100.
func (s *Service) FetchHistoricalData(ctx context.Context, symbol string, start, end time.Time, force bool, batchDays int) ([]domain.PricePoint, error) {
	if end.IsZero() {
		end = s.today()
	}
	return s.fetcher.EnsureRange(ctx, symbol, start, end, batchDays, force)
}

// BulkFetch fills [start, end] for every symbol. The result holds the symbols
// that failed and is empty when all succeeded.
func (s *Service) BulkFetch(ctx context.Context, symbols []string, start, end time.Time, batchDays int) map[string]error {
	if end.IsZero() {
		end = s.today()
	}

	failures := s.fetcher.BulkFetch(ctx, symbols, start, end, batchDays)
	for symbol, err := range failures {
		event := s.log.Warn()
		if IsCancelled(err) {
			event = s.log.Info()
		}
		event.Err(err).Str("symbol", symbol).Msg("Bulk fetch failed for symbol")
	}
	return failures
}

// PruneOlderThan removes cached points older than daysToKeep days
func (s *Service) PruneOlderThan(ctx context.Context, daysToKeep int) (int64, error) {
	cutoff := utils.AddDays(s.today(), -daysToKeep)
	return s.store.PruneBefore(ctx, cutoff)
}

// GetPriceOn returns the cached close of symbol on day; ok is false when none is stored
func (s *Service) GetPriceOn(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
	return s.store.PriceOn(ctx, symbol, day)
}
