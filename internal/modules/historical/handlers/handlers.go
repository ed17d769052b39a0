// Package handlers provides HTTP handlers for historical price operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/periods"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/prices"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/risk"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/valuation"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles historical price HTTP requests
type Handler struct {
	service   *prices.Service
	batchDays int
	log       zerolog.Logger
}

// NewHandler creates a new historical price handler
func NewHandler(service *prices.Service, batchDays int, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		batchDays: batchDays,
		log:       log.With().Str("handler", "historical").Logger(),
	}
}

// fetchRequest is the body of POST /api/historical/fetch
type fetchRequest struct {
	Symbol    string `json:"symbol"`
	Start     string `json:"start"`
	End       string `json:"end,omitempty"`
	Force     bool   `json:"force"`
	BatchDays int    `json:"batch_days,omitempty"`
}

// bulkFetchRequest is the body of POST /api/historical/bulk-fetch
type bulkFetchRequest struct {
	Symbols   []string `json:"symbols"`
	Start     string   `json:"start"`
	End       string   `json:"end,omitempty"`
	BatchDays int      `json:"batch_days,omitempty"`
}

// monthlyReturn mirrors periods.MonthlyReturn with a nullable return
type monthlyReturn struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Date      string   `json:"date"`
	Value     float64  `json:"value"`
	ReturnPct *float64 `json:"return_pct"`
}

// HandleGetPrices handles GET /api/historical/prices/{symbol}?from=&to=
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request, symbol string) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	points, err := h.service.GetHistoricalData(r.Context(), symbol, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to get prices", symbol)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol": symbol,
		"prices": points,
		"count":  len(points),
	}))
}

// HandleGetLatestPrice handles GET /api/historical/prices/latest/{symbol}
func (h *Handler) HandleGetLatestPrice(w http.ResponseWriter, r *http.Request, symbol string) {
	latest, err := h.service.GetLatestPrice(r.Context(), symbol)
	if err != nil {
		h.writeError(w, err, "Failed to get latest price", symbol)
		return
	}

	var price interface{}
	if latest != nil {
		price = map[string]interface{}{
			"date":  utils.FormatDate(latest.Date),
			"close": latest.Close,
		}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol": symbol,
		"price":  price,
	}))
}

// HandleGetPriceOn handles GET /api/historical/prices/{symbol}/on/{date}
func (h *Handler) HandleGetPriceOn(w http.ResponseWriter, r *http.Request, symbol, date string) {
	day, err := utils.ParseDate(date)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	closePrice, found, err := h.service.GetPriceOn(r.Context(), symbol, day)
	if err != nil {
		h.writeError(w, err, "Failed to get price", symbol)
		return
	}
	if !found {
		http.Error(w, "no cached price for that day", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol": symbol,
		"date":   utils.FormatDate(day),
		"close":  closePrice,
	}))
}

// HandleGetStats handles GET /api/historical/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDatabaseStats(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get database stats", "")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(stats))
}

// HandleFetch handles POST /api/historical/fetch
func (h *Handler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start, end, ok := parseBodyRange(w, req.Start, req.End)
	if !ok {
		return
	}

	batchDays := req.BatchDays
	if batchDays <= 0 {
		batchDays = h.batchDays
	}

	symbol := strings.TrimSpace(req.Symbol)
	points, err := h.service.FetchHistoricalData(r.Context(), symbol, start, end, req.Force, batchDays)
	if err != nil {
		h.writeError(w, err, "Failed to fetch prices", symbol)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol": symbol,
		"prices": points,
		"count":  len(points),
	}))
}

// HandleBulkFetch handles POST /api/historical/bulk-fetch
func (h *Handler) HandleBulkFetch(w http.ResponseWriter, r *http.Request) {
	var req bulkFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Symbols) == 0 {
		http.Error(w, "symbols is required", http.StatusBadRequest)
		return
	}

	start, end, ok := parseBodyRange(w, req.Start, req.End)
	if !ok {
		return
	}

	batchDays := req.BatchDays
	if batchDays <= 0 {
		batchDays = h.batchDays
	}

	failures := h.service.BulkFetch(r.Context(), req.Symbols, start, end, batchDays)

	failed := make(map[string]string, len(failures))
	for symbol, err := range failures {
		failed[symbol] = err.Error()
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbols":   len(req.Symbols),
		"succeeded": len(req.Symbols) - len(failures),
		"failed":    failed,
	}))
}

// HandleGetMonthlyReturns handles GET /api/historical/returns/monthly/{symbol}
func (h *Handler) HandleGetMonthlyReturns(w http.ResponseWriter, r *http.Request, symbol string) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	points, err := h.service.GetHistoricalData(r.Context(), symbol, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to get monthly returns", symbol)
		return
	}

	months := periods.MonthlyReturns(valuation.FromPoints(points))
	out := make([]monthlyReturn, 0, len(months))
	for _, m := range months {
		out = append(out, monthlyReturn{
			Year:      m.Year,
			Month:     int(m.Month),
			Date:      utils.FormatDate(m.Date),
			Value:     m.Value,
			ReturnPct: utils.Finite(m.ReturnPct),
		})
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol":  symbol,
		"returns": out,
		"count":   len(out),
	}))
}

// HandleGetRisk handles GET /api/historical/risk/{symbol}?from=&to=
func (h *Handler) HandleGetRisk(w http.ResponseWriter, r *http.Request, symbol string) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	points, err := h.service.GetHistoricalData(r.Context(), symbol, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to get risk metrics", symbol)
		return
	}

	snap := risk.Summarize(valuation.FromPoints(points))
	// A zero first close leaves the total return undefined; JSON has no NaN
	snap.TotalReturnPct = utils.ZeroIfUndefined(snap.TotalReturnPct)
	snap.CVaR95 = utils.ZeroIfUndefined(snap.CVaR95)
	snap.CVaR99 = utils.ZeroIfUndefined(snap.CVaR99)

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol": symbol,
		"risk":   snap,
	}))
}

// parseRange reads the optional from/to query parameters
func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	var from, to time.Time
	var err error

	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = utils.ParseDate(s); err != nil {
			http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
			return from, to, false
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = utils.ParseDate(s); err != nil {
			http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
			return from, to, false
		}
	}
	return from, to, true
}

func parseBodyRange(w http.ResponseWriter, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := utils.ParseDate(startStr)
	if err != nil {
		http.Error(w, "start must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}

	var end time.Time
	if endStr != "" {
		if end, err = utils.ParseDate(endStr); err != nil {
			http.Error(w, "end must be YYYY-MM-DD", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	return start, end, true
}

// writeError maps argument errors to 400 and everything else to 500
func (h *Handler) writeError(w http.ResponseWriter, err error, msg, symbol string) {
	if errors.Is(err, prices.ErrEmptySymbol) || errors.Is(err, prices.ErrInvalidRange) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.log.Error().Err(err).Str("symbol", symbol).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
