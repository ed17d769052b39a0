package domain

import (
	"context"
	"time"
)

// QuoteProvider fetches daily OHLCV bars for a symbol over an inclusive date range.
// Implementations may fail or return an empty slice; callers treat both as a miss.
type QuoteProvider interface {
	GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]PricePoint, error)
}

// PositionLedger yields the signed quantity events of one asset class
type PositionLedger interface {
	Events() []PositionEvent
}

// SymbolMapper is optionally implemented by ledgers whose transaction symbols
// differ from the quote provider's symbols (e.g. BTC -> BTC-USD).
type SymbolMapper interface {
	PriceSymbol(symbol string) string
}
