// Package ledger keeps per-asset-class position events for portfolio valuation.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/shopspring/decimal"
)

// cryptoQuoteSuffix is appended to crypto tickers to get the quote symbol (BTC -> BTC-USD)
const cryptoQuoteSuffix = "-USD"

// Entry is a recorded event with its identifier
type Entry struct {
	ID    string               `json:"id"`
	Event domain.PositionEvent `json:"event"`
}

// Book is an in-memory position ledger for one asset class.
// It is safe for concurrent use.
type Book struct {
	class       domain.AssetClass
	quoteSuffix string

	mu      sync.RWMutex
	entries []Entry
}

// Option configures a Book
type Option func(*Book)

// WithQuoteSuffix appends suffix to every symbol when looking up prices,
// unless the symbol already ends with it (e.g. ".SA" for B3 listings).
func WithQuoteSuffix(suffix string) Option {
	return func(b *Book) {
		b.quoteSuffix = suffix
	}
}

// NewBook creates an empty ledger. Crypto books quote against USD by default.
func NewBook(class domain.AssetClass, opts ...Option) *Book {
	b := &Book{class: class}
	if class == domain.AssetClassCrypto {
		b.quoteSuffix = cryptoQuoteSuffix
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Class returns the asset class the book tracks
func (b *Book) Class() domain.AssetClass {
	return b.class
}

// Record appends a signed quantity event and returns its id.
// Negative holdings are allowed; the ledger does not validate sells.
func (b *Book) Record(event domain.PositionEvent) (string, error) {
	event.Symbol = strings.TrimSpace(event.Symbol)
	if event.Symbol == "" {
		return "", fmt.Errorf("position event requires a symbol")
	}
	if event.Date.IsZero() {
		return "", fmt.Errorf("position event for %s requires a date", event.Symbol)
	}
	if event.Quantity.IsZero() {
		return "", fmt.Errorf("position event for %s has zero quantity", event.Symbol)
	}
	event.Date = utils.Day(event.Date)

	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, Entry{ID: id, Event: event})
	return id, nil
}

// Buy records an acquisition of qty units at price
func (b *Book) Buy(symbol string, date time.Time, qty decimal.Decimal, price float64) (string, error) {
	return b.Record(domain.PositionEvent{Symbol: symbol, Date: date, Quantity: qty.Abs(), Price: price})
}

// Sell records a disposal of qty units at price
func (b *Book) Sell(symbol string, date time.Time, qty decimal.Decimal, price float64) (string, error) {
	return b.Record(domain.PositionEvent{Symbol: symbol, Date: date, Quantity: qty.Abs().Neg(), Price: price})
}

// Entries returns a copy of the recorded entries in date order
func (b *Book) Entries() []Entry {
	b.mu.RLock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	b.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Event.Date.Before(out[j].Event.Date)
	})
	return out
}

// Events implements domain.PositionLedger
func (b *Book) Events() []domain.PositionEvent {
	entries := b.Entries()
	events := make([]domain.PositionEvent, len(entries))
	for i, e := range entries {
		events[i] = e.Event
	}
	return events
}

// Holdings returns the net quantity per symbol as of asOf (inclusive).
// Symbols netting to zero are omitted.
func (b *Book) Holdings(asOf time.Time) map[string]decimal.Decimal {
	asOf = utils.Day(asOf)
	holdings := make(map[string]decimal.Decimal)

	for _, e := range b.Entries() {
		if e.Event.Date.After(asOf) {
			break
		}
		holdings[e.Event.Symbol] = holdings[e.Event.Symbol].Add(e.Event.Quantity)
	}

	for symbol, qty := range holdings {
		if qty.IsZero() {
			delete(holdings, symbol)
		}
	}
	return holdings
}

// Symbols returns every symbol with at least one event, sorted
func (b *Book) Symbols() []string {
	seen := make(map[string]struct{})
	b.mu.RLock()
	for _, e := range b.entries {
		seen[e.Event.Symbol] = struct{}{}
	}
	b.mu.RUnlock()

	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// FirstDate returns the date of the earliest event, zero when the book is empty
func (b *Book) FirstDate() time.Time {
	entries := b.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Event.Date
}

// PriceSymbol implements domain.SymbolMapper
func (b *Book) PriceSymbol(symbol string) string {
	if b.quoteSuffix == "" || strings.HasSuffix(symbol, b.quoteSuffix) {
		return symbol
	}
	return symbol + b.quoteSuffix
}
