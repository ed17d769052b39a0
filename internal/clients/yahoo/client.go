// Package yahoo provides a daily OHLCV quote provider backed by the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public chart endpoint
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client fetches daily bars from the Yahoo chart API
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a Yahoo chart client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
	Events struct {
		Dividends map[string]struct {
			Amount float64 `json:"amount"`
			Date   int64   `json:"date"`
		} `json:"dividends"`
		Splits map[string]struct {
			Date        int64   `json:"date"`
			Numerator   float64 `json:"numerator"`
			Denominator float64 `json:"denominator"`
		} `json:"splits"`
	} `json:"events"`
}

// GetOHLCV returns the daily bars for symbol within [start, end], ascending by date.
// An unknown symbol or a range without trading days yields an empty slice.
func (c *Client) GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	start, end = utils.Day(start), utils.Day(end)

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive
	params.Set("period2", strconv.FormatInt(utils.AddDays(end, 1).Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,split")

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; portfolio-tracker)")
	req.Header.Set("Accept", "application/json")

	c.log.Debug().
		Str("symbol", symbol).
		Str("from", utils.FormatDate(start)).
		Str("to", utils.FormatDate(end)).
		Msg("Fetching chart")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []domain.PricePoint{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s returned status %d", symbol, resp.StatusCode)
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode chart for %s: %w", symbol, err)
	}

	if body.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s", symbol, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return []domain.PricePoint{}, nil
	}

	return parseResult(symbol, body.Chart.Result[0], start, end), nil
}

// parseResult turns the column arrays into bars. Days without a close are
// dropped; timestamps are mapped to the exchange's local calendar day.
func parseResult(symbol string, r chartResult, start, end time.Time) []domain.PricePoint {
	if len(r.Indicators.Quote) == 0 {
		return []domain.PricePoint{}
	}
	quote := r.Indicators.Quote[0]

	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	toDay := func(ts int64) time.Time {
		return utils.Day(time.Unix(ts+r.Meta.GMTOffset, 0).UTC())
	}

	dividends := make(map[time.Time]float64)
	for _, div := range r.Events.Dividends {
		dividends[toDay(div.Date)] += div.Amount
	}
	splits := make(map[time.Time]float64)
	for _, split := range r.Events.Splits {
		if split.Denominator != 0 {
			splits[toDay(split.Date)] = split.Numerator / split.Denominator
		}
	}

	byDay := make(map[time.Time]domain.PricePoint, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePrice, ok := at(quote.Close, i)
		if !ok {
			continue
		}

		day := toDay(ts)
		if day.Before(start) || day.After(end) {
			continue
		}

		p := domain.PricePoint{
			Symbol:   symbol,
			Date:     day,
			Close:    closePrice,
			AdjClose: closePrice,
			Dividend: dividends[day],
			Split:    1,
		}
		p.Open, _ = at(quote.Open, i)
		p.High, _ = at(quote.High, i)
		p.Low, _ = at(quote.Low, i)
		if v, ok := at(adj, i); ok {
			p.AdjClose = v
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			p.Volume = *quote.Volume[i]
		}
		if ratio, ok := splits[day]; ok {
			p.Split = ratio
		}

		// Later rows for the same day win (intraday last bar)
		byDay[day] = p
	}

	points := make([]domain.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}
