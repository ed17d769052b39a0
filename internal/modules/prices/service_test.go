package prices

import (
	"context"
	"testing"
	"time"

	testingpkg "github.com/mecoserra2008/Portfolio-Tracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, provider *testingpkg.FakeQuoteProvider) *Service {
	t.Helper()
	store := newTestStore(t)
	fetcher := NewFetcher(store, provider, fastConfig(2), nil, zerolog.Nop())
	svc := NewService(store, fetcher, zerolog.Nop())
	svc.today = func() time.Time { return d(1, 10) }
	return svc
}

func TestService_FetchDefaultsEndToToday(t *testing.T) {
	ctx := context.Background()
	provider := testingpkg.NewFakeQuoteProvider()
	provider.SetSeries("AAA", testingpkg.ConstantSeries("AAA", d(1, 1), d(1, 31), 5))
	svc := newTestService(t, provider)

	points, err := svc.FetchHistoricalData(ctx, "AAA", d(1, 1), time.Time{}, false, 0)
	require.NoError(t, err)
	assert.Len(t, points, 10)
	assert.Equal(t, 1, provider.CallCount(), "default batch is 100 days")

	all, err := svc.GetHistoricalData(ctx, "AAA", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 10)

	latest, err := svc.GetLatestPrice(ctx, "AAA")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, d(1, 10), latest.Date)

	stats, err := svc.GetDatabaseStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSymbols)
}

func TestService_BulkFetchAndPrune(t *testing.T) {
	ctx := context.Background()
	provider := testingpkg.NewFakeQuoteProvider()
	provider.SetSeries("AAA", testingpkg.ConstantSeries("AAA", d(1, 1), d(1, 10), 5))
	provider.SetSeries("BBB", testingpkg.ConstantSeries("BBB", d(1, 1), d(1, 10), 7))
	svc := newTestService(t, provider)

	failures := svc.BulkFetch(ctx, []string{"AAA", "BBB"}, d(1, 1), time.Time{}, 100)
	assert.Empty(t, failures)

	deleted, err := svc.PruneOlderThan(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(10), deleted, "days before 2024-01-06 removed for both symbols")

	points, err := svc.GetHistoricalData(ctx, "AAA", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 5)
	assert.Equal(t, d(1, 6), points[0].Date)
}
