package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	testingpkg "github.com/mecoserra2008/Portfolio-Tracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

type mockBulkFetcher struct {
	mock.Mock
}

func (m *mockBulkFetcher) BulkFetch(ctx context.Context, symbols []string, start, end time.Time, batchDays int) map[string]error {
	args := m.Called(ctx, symbols, start, end, batchDays)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]error)
}

type mockPruner struct {
	mock.Mock
}

func (m *mockPruner) PruneOlderThan(ctx context.Context, daysToKeep int) (int64, error) {
	args := m.Called(ctx, daysToKeep)
	return args.Get(0).(int64), args.Error(1)
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	assert.NoError(t, s.AddJob("0 30 22 * * MON-FRI", &countingJob{}))
	assert.NoError(t, s.AddJob("@every 1h", &countingJob{}))
	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
	assert.Error(t, s.AddJob("30 22 * * *", &countingJob{}), "schedules carry a seconds field")
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	assert.EqualError(t, s.RunNow(job), "boom")
	assert.Equal(t, 1, job.runs)

	// The cron wrapper logs failures instead of propagating them
	s.run(job)
	assert.Equal(t, 2, job.runs)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@hourly", &countingJob{}))

	assert.NotPanics(t, func() {
		s.Start()
		s.Stop()
	})
}

func TestRefreshWatchlistJob_Run(t *testing.T) {
	fetcher := new(mockBulkFetcher)
	symbols := []string{"AAPL", "MSFT"}
	today := testingpkg.Date(2024, 3, 31)

	fetcher.On("BulkFetch", mock.Anything, symbols, testingpkg.Date(2024, 3, 1), today, 100).
		Return(map[string]error{"MSFT": errors.New("db locked")}).Once()

	job := NewRefreshWatchlistJob(fetcher, symbols, 30, 100)
	job.today = func() time.Time { return today }

	assert.Equal(t, "refresh_watchlist", job.Name())
	assert.NoError(t, job.Run(), "one failing symbol does not fail the job")
	fetcher.AssertExpectations(t)
}

func TestRefreshWatchlistJob_AllFailed(t *testing.T) {
	fetcher := new(mockBulkFetcher)
	fetcher.On("BulkFetch", mock.Anything, []string{"AAPL"}, mock.Anything, mock.Anything, 50).
		Return(map[string]error{"AAPL": errors.New("db locked")})

	job := NewRefreshWatchlistJob(fetcher, []string{"AAPL"}, 7, 50)
	assert.Error(t, job.Run())
}

func TestRefreshWatchlistJob_EmptyWatchlist(t *testing.T) {
	fetcher := new(mockBulkFetcher)
	job := NewRefreshWatchlistJob(fetcher, nil, 30, 100)

	assert.NoError(t, job.Run())
	fetcher.AssertNotCalled(t, "BulkFetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPruneHistoryJob_Run(t *testing.T) {
	pruner := new(mockPruner)
	pruner.On("PruneOlderThan", mock.Anything, 365).Return(int64(12), nil).Once()

	job := NewPruneHistoryJob(pruner, 365)
	assert.Equal(t, "prune_history", job.Name())
	assert.NoError(t, job.Run())
	pruner.AssertExpectations(t)
}

func TestPruneHistoryJob_Error(t *testing.T) {
	pruner := new(mockPruner)
	pruner.On("PruneOlderThan", mock.Anything, 30).Return(int64(0), errors.New("disk full"))

	job := NewPruneHistoryJob(pruner, 30)
	assert.ErrorContains(t, job.Run(), "disk full")
}

func TestPruneHistoryJob_DisabledRetention(t *testing.T) {
	pruner := new(mockPruner)
	job := NewPruneHistoryJob(pruner, 0)

	assert.NoError(t, job.Run())
	pruner.AssertNotCalled(t, "PruneOlderThan", mock.Anything, mock.Anything)
}

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := &CheckWALCheckpointsJob{
		log: zerolog.Nop(),
	}
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabases(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	job := NewCheckWALCheckpointsJob(nil, nil)
	job.SetLogger(log)

	err := job.Run()
	assert.NoError(t, err) // Should handle nil databases gracefully
}

func TestCheckWALCheckpointsJob_Run_HistoryDB(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "history")
	defer cleanup()

	job := NewCheckWALCheckpointsJob(db)
	assert.NoError(t, job.Run())
}
