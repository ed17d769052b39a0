package testing

import (
	"context"
	"sync"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockQuoteProvider is a testify mock of domain.QuoteProvider
type MockQuoteProvider struct {
	mock.Mock
}

// GetOHLCV records the call and returns the configured result
func (m *MockQuoteProvider) GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	args := m.Called(ctx, symbol, start, end)
	var points []domain.PricePoint
	if v := args.Get(0); v != nil {
		points = v.([]domain.PricePoint)
	}
	return points, args.Error(1)
}

// ProviderCall is one recorded FakeQuoteProvider request
type ProviderCall struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

// FakeQuoteProvider serves bars from an in-memory table and counts calls.
// Symbols listed in Failing return Err; symbols without data return an empty slice.
type FakeQuoteProvider struct {
	mu      sync.Mutex
	data    map[string][]domain.PricePoint
	failing map[string]error
	calls   []ProviderCall
}

// NewFakeQuoteProvider creates an empty fake provider
func NewFakeQuoteProvider() *FakeQuoteProvider {
	return &FakeQuoteProvider{
		data:    make(map[string][]domain.PricePoint),
		failing: make(map[string]error),
	}
}

// SetSeries replaces the bars served for symbol
func (f *FakeQuoteProvider) SetSeries(symbol string, points []domain.PricePoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[symbol] = points
}

// SetError makes every call for symbol fail with err
func (f *FakeQuoteProvider) SetError(symbol string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[symbol] = err
}

// GetOHLCV returns the stored bars inside [start, end]
func (f *FakeQuoteProvider) GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, ProviderCall{Symbol: symbol, Start: start, End: end})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.failing[symbol]; ok {
		return nil, err
	}

	var out []domain.PricePoint
	for _, p := range f.data[symbol] {
		if !p.Date.Before(start) && !p.Date.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Calls returns a copy of every recorded request
func (f *FakeQuoteProvider) Calls() []ProviderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ProviderCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of requests served so far
func (f *FakeQuoteProvider) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Reset forgets recorded calls
func (f *FakeQuoteProvider) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
