package prices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultBatchDays is the window size used when callers pass zero
const DefaultBatchDays = 100

// FetcherConfig tunes how provider calls are scheduled
type FetcherConfig struct {
	// Workers bounds concurrent provider calls
	Workers int
	// Pacing is the minimum delay between two provider calls across all workers
	Pacing time.Duration
	// MaxRetries is how many times a failed window is re-requested before it is skipped
	MaxRetries int
}

// DefaultFetcherConfig matches the sequential behaviour of the original cache:
// one call at a time, half a second apart, failed windows skipped.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Workers:    1,
		Pacing:     500 * time.Millisecond,
		MaxRetries: 0,
	}
}

// Fetcher fills the price store from a quote provider in bounded windows.
// Every provider call, whichever symbol it belongs to, takes a token from one shared limiter.
type Fetcher struct {
	store    *Store
	provider domain.QuoteProvider
	limiter  *rate.Limiter
	cfg      FetcherConfig
	metrics  *Metrics
	log      zerolog.Logger
}

// NewFetcher creates a fetcher. metrics may be nil.
func NewFetcher(store *Store, provider domain.QuoteProvider, cfg FetcherConfig, metrics *Metrics, log zerolog.Logger) *Fetcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	limit := rate.Inf
	if cfg.Pacing > 0 {
		limit = rate.Every(cfg.Pacing)
	}

	return &Fetcher{
		store:    store,
		provider: provider,
		limiter:  rate.NewLimiter(limit, 1),
		cfg:      cfg,
		metrics:  metrics,
		log:      log.With().Str("component", "batch_fetcher").Logger(),
	}
}

// fetchTask is one (symbol, window) unit of work. Tasks are idempotent:
// re-running one rewrites the same rows.
type fetchTask struct {
	symbol string
	window DateRange
}

// EnsureRange makes sure [start, end] is cached for symbol as far as the provider
// can serve it, then returns the stored points in that range. With force the
// symbol's cache is cleared first. A fully covered range makes no provider calls.
func (f *Fetcher) EnsureRange(ctx context.Context, symbol string, start, end time.Time, batchDays int, force bool) ([]domain.PricePoint, error) {
	start, end = utils.Day(start), utils.Day(end)
	if err := validate(symbol, start, end); err != nil {
		return nil, err
	}

	if force {
		if err := f.store.ForcedRefresh(ctx, symbol); err != nil {
			return nil, fmt.Errorf("failed to clear cache for %s: %w", symbol, err)
		}
	}

	tasks, err := f.plan(ctx, symbol, start, end, batchDays)
	if err != nil {
		return nil, err
	}

	if len(tasks) > 0 {
		log := f.log.With().Str("run_id", uuid.NewString()).Str("symbol", symbol).Logger()
		log.Info().
			Str("from", utils.FormatDate(start)).
			Str("to", utils.FormatDate(end)).
			Int("windows", len(tasks)).
			Msg("Fetching missing price history")

		written, err := f.run(ctx, tasks, log)
		if err != nil {
			return nil, err
		}

		log.Info().Int("records", written[symbol]).Msg("Price history fetch complete")
	}

	return f.store.Read(ctx, symbol, start, end)
}

// BulkFetch ensures [start, end] for every symbol through one shared worker pool.
// A failing symbol never stops the others; the returned map holds only the
// symbols that could not be processed.
func (f *Fetcher) BulkFetch(ctx context.Context, symbols []string, start, end time.Time, batchDays int) map[string]error {
	start, end = utils.Day(start), utils.Day(end)
	failures := make(map[string]error)

	runLog := f.log.With().Str("run_id", uuid.NewString()).Logger()
	defer utils.OperationTimer("bulk_fetch", runLog)()

	var tasks []fetchTask
	for _, symbol := range symbols {
		symbolTasks, err := f.plan(ctx, symbol, start, end, batchDays)
		if err != nil {
			failures[symbol] = err
			continue
		}
		tasks = append(tasks, symbolTasks...)
	}

	runLog.Info().
		Int("symbols", len(symbols)).
		Int("windows", len(tasks)).
		Msg("Bulk fetching price history")

	written, taskErrs := f.runIsolated(ctx, tasks, runLog)
	for symbol, err := range taskErrs {
		failures[symbol] = err
	}

	runLog.Info().
		Int("symbols", len(symbols)).
		Int("failed", len(failures)).
		Int("records", sum(written)).
		Msg("Bulk fetch complete")

	return failures
}

// plan turns the missing ranges of one symbol into fetch tasks
func (f *Fetcher) plan(ctx context.Context, symbol string, start, end time.Time, batchDays int) ([]fetchTask, error) {
	if batchDays <= 0 {
		batchDays = DefaultBatchDays
	}

	ranges, err := f.store.MissingRanges(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	var tasks []fetchTask
	for _, r := range ranges {
		for _, w := range splitWindows(r, batchDays) {
			tasks = append(tasks, fetchTask{symbol: symbol, window: w})
		}
	}
	return tasks, nil
}

// run executes tasks and returns the first hard error (storage or cancellation)
func (f *Fetcher) run(ctx context.Context, tasks []fetchTask, log zerolog.Logger) (map[string]int, error) {
	written, errs := f.runIsolated(ctx, tasks, log)
	for _, err := range errs {
		return written, err
	}
	return written, nil
}

// runIsolated executes every task on the bounded pool. Provider failures are
// absorbed by the task; storage errors and cancellation are collected per symbol.
func (f *Fetcher) runIsolated(ctx context.Context, tasks []fetchTask, log zerolog.Logger) (map[string]int, map[string]error) {
	var (
		mu      sync.Mutex
		written = make(map[string]int)
		errs    = make(map[string]error)
	)

	var g errgroup.Group
	g.SetLimit(f.cfg.Workers)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			n, err := f.execute(ctx, task, log)

			mu.Lock()
			defer mu.Unlock()
			written[task.symbol] += n
			if err != nil {
				if _, seen := errs[task.symbol]; !seen {
					errs[task.symbol] = err
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return written, errs
}

// execute performs one window: paced provider call(s), then a store write.
// A provider error or empty result skips the window without an error.
func (f *Fetcher) execute(ctx context.Context, task fetchTask, log zerolog.Logger) (int, error) {
	wlog := log.With().
		Str("symbol", task.symbol).
		Str("window", task.window.String()).
		Int("days", task.window.Days()).
		Logger()

	for attempt := 0; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("fetch %s %s cancelled: %w", task.symbol, task.window, err)
		}

		started := time.Now()
		points, err := f.provider.GetOHLCV(ctx, task.symbol, task.window.Start, task.window.End)
		elapsed := time.Since(started)

		if err != nil {
			f.metrics.observeCall(resultError, elapsed)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, fmt.Errorf("fetch %s %s cancelled: %w", task.symbol, task.window, ctxErr)
			}
			if attempt < f.cfg.MaxRetries {
				wlog.Debug().Err(err).Int("attempt", attempt+1).Msg("Provider call failed, retrying")
				continue
			}
			wlog.Warn().Err(err).Msg("Provider call failed, skipping window")
			f.metrics.skipWindow()
			return 0, nil
		}

		if len(points) == 0 {
			f.metrics.observeCall(resultEmpty, elapsed)
			wlog.Debug().Msg("No data for window")
			f.metrics.skipWindow()
			return 0, nil
		}

		f.metrics.observeCall(resultOK, elapsed)

		for i := range points {
			points[i].Symbol = task.symbol
			points[i].Date = utils.Day(points[i].Date)
		}

		n, err := f.store.Write(ctx, task.symbol, points)
		if err != nil {
			return 0, fmt.Errorf("failed to store window %s for %s: %w", task.window, task.symbol, err)
		}
		f.metrics.addPoints(n)

		wlog.Debug().Int("records", n).Msg("Stored window")
		return n, nil
	}
}

func sum(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// IsCancelled reports whether err came from a cancelled or expired context
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
