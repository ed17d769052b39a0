// Package handlers provides HTTP handlers for portfolio performance analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/ledger"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/portfolio"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles portfolio analysis HTTP requests
type Handler struct {
	analyzer  *portfolio.Analyzer
	benchmark string
	log       zerolog.Logger
	today     func() time.Time
}

// NewHandler creates a new portfolio handler. benchmark is used when a
// request does not name one.
func NewHandler(analyzer *portfolio.Analyzer, benchmark string, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer:  analyzer,
		benchmark: benchmark,
		log:       log.With().Str("handler", "portfolio").Logger(),
		today:     utils.Today,
	}
}

// positionRequest is one signed quantity event
type positionRequest struct {
	Class    domain.AssetClass `json:"class"`
	Symbol   string            `json:"symbol"`
	Date     string            `json:"date"`
	Quantity decimal.Decimal   `json:"quantity"`
	Price    float64           `json:"price"`
}

// analyzeRequest is the body of POST /api/portfolio/analyze
type analyzeRequest struct {
	Start         string            `json:"start,omitempty"`
	End           string            `json:"end,omitempty"`
	Benchmark     string            `json:"benchmark,omitempty"`
	SkipBenchmark bool              `json:"skip_benchmark"`
	Compare       []string          `json:"compare,omitempty"`
	RollingWindow int               `json:"rolling_window,omitempty"`
	QuoteSuffix   map[string]string `json:"quote_suffix,omitempty"` // per asset class, e.g. {"stock": ".SA"}
	Positions     []positionRequest `json:"positions"`
}

var errBadRequest = errors.New("bad request")

// HandleAnalyze handles POST /api/portfolio/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, books, err := h.buildRequest(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Msg("Portfolio analysis failed")
		http.Error(w, "Failed to analyze portfolio", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": toReportDTO(report),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"start":     utils.FormatDate(req.Start),
			"end":       utils.FormatDate(req.End),
			"positions": len(body.Positions),
			"holdings":  holdingsAt(books, req.End),
		},
	})
}

// buildRequest records the posted events into one ledger per asset class
func (h *Handler) buildRequest(body analyzeRequest) (portfolio.Request, map[domain.AssetClass]*ledger.Book, error) {
	if len(body.Positions) == 0 {
		return portfolio.Request{}, nil, fmt.Errorf("%w: positions is required", errBadRequest)
	}

	books := make(map[domain.AssetClass]*ledger.Book)

	for i, p := range body.Positions {
		class := domain.AssetClass(strings.ToLower(string(p.Class)))
		if class == "" {
			class = domain.AssetClassStock
		}

		date, err := utils.ParseDate(p.Date)
		if err != nil {
			return portfolio.Request{}, nil, fmt.Errorf("%w: position %d: %v", errBadRequest, i, err)
		}

		book, ok := books[class]
		if !ok {
			var opts []ledger.Option
			if suffix, ok := body.QuoteSuffix[string(class)]; ok {
				opts = append(opts, ledger.WithQuoteSuffix(suffix))
			}
			book = ledger.NewBook(class, opts...)
			books[class] = book
		}

		if _, err := book.Record(domain.PositionEvent{Symbol: p.Symbol, Date: date, Quantity: p.Quantity, Price: p.Price}); err != nil {
			return portfolio.Request{}, nil, fmt.Errorf("%w: position %d: %v", errBadRequest, i, err)
		}
	}

	var first time.Time
	for _, book := range books {
		if d := book.FirstDate(); first.IsZero() || d.Before(first) {
			first = d
		}
	}

	req := portfolio.Request{
		Ledgers:       make(map[domain.AssetClass]domain.PositionLedger, len(books)),
		Start:         first,
		End:           h.today(),
		Benchmark:     body.Benchmark,
		SkipBenchmark: body.SkipBenchmark,
		Compare:       body.Compare,
		RollingWindow: body.RollingWindow,
	}
	for class, book := range books {
		req.Ledgers[class] = book
	}
	if req.Benchmark == "" {
		req.Benchmark = h.benchmark
	}

	var err error
	if body.Start != "" {
		if req.Start, err = utils.ParseDate(body.Start); err != nil {
			return req, nil, fmt.Errorf("%w: start: %v", errBadRequest, err)
		}
	}
	if body.End != "" {
		if req.End, err = utils.ParseDate(body.End); err != nil {
			return req, nil, fmt.Errorf("%w: end: %v", errBadRequest, err)
		}
	}
	if req.End.Before(req.Start) {
		return req, nil, fmt.Errorf("%w: end %s is before start %s", errBadRequest, utils.FormatDate(req.End), utils.FormatDate(req.Start))
	}

	return req, books, nil
}

// holdingsAt reports the net open quantity per class and symbol as of day
func holdingsAt(books map[domain.AssetClass]*ledger.Book, day time.Time) map[domain.AssetClass]map[string]decimal.Decimal {
	out := make(map[domain.AssetClass]map[string]decimal.Decimal, len(books))
	for class, book := range books {
		out[class] = book.Holdings(day)
	}
	return out
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
