package prices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/database"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/rs/zerolog"
)

// timestampLayout is how last_updated and updated_at are written
const timestampLayout = "2006-01-02 15:04:05"

// SymbolStats is the per-symbol row of DatabaseStats
type SymbolStats struct {
	Symbol    string `json:"symbol"`
	Records   int    `json:"records"`
	FirstDate string `json:"first_date"`
	LastDate  string `json:"last_date"`
}

// DatabaseStats summarizes the whole price cache
type DatabaseStats struct {
	TotalSymbols int           `json:"total_symbols"`
	TotalRecords int           `json:"total_records"`
	StartDate    string        `json:"start_date,omitempty"`
	EndDate      string        `json:"end_date,omitempty"`
	Symbols      []SymbolStats `json:"symbols"`
}

// Store persists daily price points and per-symbol coverage.
// Writes for the same symbol are serialized; reads never block on them.
type Store struct {
	db    *sql.DB
	log   zerolog.Logger
	locks sync.Map // symbol -> *sync.Mutex
	now   func() time.Time
}

// NewStore creates a price store on an already migrated history database
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
		now: time.Now,
	}
}

func (s *Store) lock(symbol string) func() {
	v, _ := s.locks.LoadOrStore(symbol, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Coverage returns the cached coverage summary, or nil when nothing is stored
func (s *Store) Coverage(ctx context.Context, symbol string) (*domain.SymbolCoverage, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	query := `
		SELECT symbol, first_date, last_date, last_updated, total_records
		FROM symbol_metadata
		WHERE symbol = ?
	`

	var cov domain.SymbolCoverage
	var first, last, updated dbTime
	err := s.db.QueryRowContext(ctx, query, symbol).Scan(&cov.Symbol, &first, &last, &updated, &cov.RecordCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query coverage for %s: %w", symbol, err)
	}

	if cov.RecordCount == 0 || !first.Valid || !last.Valid {
		return nil, nil
	}

	cov.FirstDate = utils.Day(first.Time)
	cov.LastDate = utils.Day(last.Time)
	cov.LastUpdated = updated.Time
	return &cov, nil
}

// MissingRanges reports which parts of [start, end] are outside the cached coverage.
// At most two ranges are returned; gaps inside the covered span are not detected.
func (s *Store) MissingRanges(ctx context.Context, symbol string, start, end time.Time) ([]DateRange, error) {
	if err := validate(symbol, start, end); err != nil {
		return nil, err
	}

	cov, err := s.Coverage(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return missingRanges(cov, start, end), nil
}

// Write inserts or replaces points for symbol and recomputes its coverage
// inside the same transaction. Returns the number of points written.
func (s *Store) Write(ctx context.Context, symbol string, points []domain.PricePoint) (int, error) {
	if symbol == "" {
		return 0, ErrEmptySymbol
	}
	if len(points) == 0 {
		return 0, nil
	}

	unlock := s.lock(symbol)
	defer unlock()

	now := s.now().UTC().Format(timestampLayout)
	written := 0

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO price_history
			(symbol, date, open, high, low, close, adj_close, volume, dividend, split, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare price insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			split := p.Split
			if split == 0 {
				split = 1
			}
			adj := p.AdjClose
			if adj == 0 {
				adj = p.Close
			}

			_, err := stmt.ExecContext(ctx,
				symbol,
				utils.FormatDate(p.Date),
				p.Open,
				p.High,
				p.Low,
				p.Close,
				adj,
				p.Volume,
				p.Dividend,
				split,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert price for %s on %s: %w", symbol, utils.FormatDate(p.Date), err)
			}
			written++
		}

		return recomputeCoverage(ctx, tx, symbol, now)
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug().
		Str("symbol", symbol).
		Int("records", written).
		Msg("Stored price points")

	return written, nil
}

// recomputeCoverage rebuilds the symbol_metadata row from price_history
func recomputeCoverage(ctx context.Context, tx *sql.Tx, symbol, now string) error {
	var count int
	var first, last sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(date), MAX(date)
		FROM price_history
		WHERE symbol = ?
	`, symbol).Scan(&count, &first, &last)
	if err != nil {
		return fmt.Errorf("failed to aggregate coverage for %s: %w", symbol, err)
	}

	if count == 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM symbol_metadata WHERE symbol = ?", symbol); err != nil {
			return fmt.Errorf("failed to delete coverage for %s: %w", symbol, err)
		}
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO symbol_metadata
		(symbol, first_date, last_date, last_updated, total_records)
		VALUES (?, ?, ?, ?, ?)
	`, symbol, dateString(first.String), dateString(last.String), now, count)
	if err != nil {
		return fmt.Errorf("failed to update coverage for %s: %w", symbol, err)
	}
	return nil
}

// Read returns stored points for symbol within [start, end], ascending by date
func (s *Store) Read(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	if err := validate(symbol, start, end); err != nil {
		return nil, err
	}

	query := `
		SELECT date, open, high, low, close, adj_close, volume, dividend, split
		FROM price_history
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, symbol, utils.FormatDate(start), utils.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	points := []domain.PricePoint{}
	for rows.Next() {
		p := domain.PricePoint{Symbol: symbol}
		var date dbTime
		var open, high, low, closePrice, adj, dividend, split sql.NullFloat64
		var volume sql.NullInt64

		if err := rows.Scan(&date, &open, &high, &low, &closePrice, &adj, &volume, &dividend, &split); err != nil {
			return nil, fmt.Errorf("failed to scan price for %s: %w", symbol, err)
		}

		p.Date = utils.Day(date.Time)
		p.Open = open.Float64
		p.High = high.Float64
		p.Low = low.Float64
		p.Close = closePrice.Float64
		p.AdjClose = adj.Float64
		p.Volume = volume.Int64
		p.Dividend = dividend.Float64
		p.Split = 1
		if split.Valid {
			p.Split = split.Float64
		}

		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices for %s: %w", symbol, err)
	}

	return points, nil
}

// PriceOn returns the close for symbol on exactly day.
// ok is false when no point is stored for that day.
func (s *Store) PriceOn(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
	if symbol == "" {
		return 0, false, ErrEmptySymbol
	}

	var closePrice sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		"SELECT close FROM price_history WHERE symbol = ? AND date = ?",
		symbol, utils.FormatDate(day),
	).Scan(&closePrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to query price for %s on %s: %w", symbol, utils.FormatDate(day), err)
	}

	if !closePrice.Valid {
		return 0, false, nil
	}
	return closePrice.Float64, true, nil
}

// Latest returns the most recent stored point for symbol, or nil when none exists
func (s *Store) Latest(ctx context.Context, symbol string) (*domain.PricePoint, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	var date dbTime
	var closePrice sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT date, close
		FROM price_history
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(&date, &closePrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest price for %s: %w", symbol, err)
	}

	return &domain.PricePoint{
		Symbol: symbol,
		Date:   utils.Day(date.Time),
		Close:  closePrice.Float64,
		Split:  1,
	}, nil
}

// ForcedRefresh deletes every stored point and the coverage row for symbol
func (s *Store) ForcedRefresh(ctx context.Context, symbol string) error {
	if symbol == "" {
		return ErrEmptySymbol
	}

	unlock := s.lock(symbol)
	defer unlock()

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM price_history WHERE symbol = ?", symbol); err != nil {
			return fmt.Errorf("failed to delete prices for %s: %w", symbol, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM symbol_metadata WHERE symbol = ?", symbol); err != nil {
			return fmt.Errorf("failed to delete coverage for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("symbol", symbol).Msg("Cleared cached prices")
	return nil
}

// PruneBefore deletes every point dated before cutoff and recomputes coverage
// for the symbols it touched. Returns the number of deleted points.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffStr := utils.FormatDate(cutoff)

	symbols, err := s.symbolsBefore(ctx, cutoffStr)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, symbol := range symbols {
		n, err := s.pruneSymbol(ctx, symbol, cutoffStr)
		if err != nil {
			return deleted, err
		}
		deleted += n
	}

	s.log.Info().
		Str("cutoff", cutoffStr).
		Int64("deleted", deleted).
		Int("symbols", len(symbols)).
		Msg("Pruned old price history")

	return deleted, nil
}

func (s *Store) symbolsBefore(ctx context.Context, cutoff string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT symbol FROM price_history WHERE date < ? ORDER BY symbol", cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols to prune: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols to prune: %w", err)
	}
	return symbols, nil
}

func (s *Store) pruneSymbol(ctx context.Context, symbol, cutoff string) (int64, error) {
	unlock := s.lock(symbol)
	defer unlock()

	var deleted int64
	now := s.now().UTC().Format(timestampLayout)
	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM price_history WHERE symbol = ? AND date < ?", symbol, cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune prices for %s: %w", symbol, err)
		}
		deleted, _ = res.RowsAffected()
		return recomputeCoverage(ctx, tx, symbol, now)
	})
	return deleted, err
}

// Stats summarizes the cache: totals, global date range and per-symbol counts
func (s *Store) Stats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{Symbols: []SymbolStats{}}

	var minDate, maxDate sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT symbol), COUNT(*), MIN(date), MAX(date)
		FROM price_history
	`).Scan(&stats.TotalSymbols, &stats.TotalRecords, &minDate, &maxDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query database stats: %w", err)
	}
	stats.StartDate = dateString(minDate.String)
	stats.EndDate = dateString(maxDate.String)

	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, COUNT(*) AS records, MIN(date), MAX(date)
		FROM price_history
		GROUP BY symbol
		ORDER BY records DESC, symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st SymbolStats
		var first, last sql.NullString
		if err := rows.Scan(&st.Symbol, &st.Records, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan symbol stats: %w", err)
		}
		st.FirstDate = dateString(first.String)
		st.LastDate = dateString(last.String)
		stats.Symbols = append(stats.Symbols, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol stats: %w", err)
	}

	return stats, nil
}

func validate(symbol string, start, end time.Time) error {
	if symbol == "" {
		return ErrEmptySymbol
	}
	if utils.Day(end).Before(utils.Day(start)) {
		return fmt.Errorf("%s %s..%s: %w", symbol, utils.FormatDate(start), utils.FormatDate(end), ErrInvalidRange)
	}
	return nil
}

// dateString keeps the YYYY-MM-DD prefix of a stored date value.
// Drivers may hand DATE columns back as RFC3339 text.
func dateString(s string) string {
	if len(s) >= len(utils.DateLayout) {
		return s[:len(utils.DateLayout)]
	}
	return s
}

// dbTime scans DATE and TIMESTAMP columns whether the driver returns
// time.Time or text.
type dbTime struct {
	Time  time.Time
	Valid bool
}

var dbTimeLayouts = []string{
	time.RFC3339Nano,
	timestampLayout,
	"2006-01-02T15:04:05",
	utils.DateLayout,
}

// Scan implements sql.Scanner
func (t *dbTime) Scan(value interface{}) error {
	t.Time, t.Valid = time.Time{}, false

	var s string
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("unsupported date value %T", value)
	}

	s = strings.TrimSpace(s)
	for _, layout := range dbTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unparseable date value %q", s)
}
