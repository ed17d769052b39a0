package handlers

import (
	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/benchmark"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/portfolio"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
)

// Response types mirror the analytics types with undefined values as null

type valuationDTO struct {
	Date                string                        `json:"date"`
	Components          map[domain.AssetClass]float64 `json:"components"`
	TotalValue          float64                       `json:"total_value"`
	DailyReturnPct      *float64                      `json:"daily_return_pct"`
	CumulativeReturnPct *float64                      `json:"cumulative_return_pct"`
	MissingPrices       []string                      `json:"missing_prices,omitempty"`
}

type drawdownDTO struct {
	Date        string  `json:"date"`
	Value       float64 `json:"value"`
	Peak        float64 `json:"peak"`
	Drawdown    float64 `json:"drawdown"`
	DrawdownPct float64 `json:"drawdown_pct"`
}

type rollingDTO struct {
	Date                 string   `json:"date"`
	AnnualizedReturn     *float64 `json:"rolling_annualized_return"`
	AnnualizedVolatility *float64 `json:"rolling_annualized_volatility"`
	Sharpe               *float64 `json:"rolling_sharpe"`
}

type monthlyDTO struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Date      string   `json:"date"`
	Value     float64  `json:"value"`
	ReturnPct *float64 `json:"return_pct"`
}

type heatmapDTO struct {
	Years []int          `json:"years"`
	Cells [][12]*float64 `json:"cells"`
}

type benchmarkRowDTO struct {
	Date                   string   `json:"date"`
	PortfolioValue         float64  `json:"portfolio_value"`
	PortfolioReturnPct     *float64 `json:"portfolio_return_pct"`
	PortfolioCumulativePct *float64 `json:"portfolio_cumulative_pct"`
	BenchmarkClose         *float64 `json:"benchmark_close"`
	BenchmarkReturnPct     *float64 `json:"benchmark_return_pct"`
	BenchmarkCumulativePct *float64 `json:"benchmark_cumulative_pct"`
	AlphaPct               *float64 `json:"alpha_pct"`
	CumulativeAlphaPct     *float64 `json:"cumulative_alpha_pct"`
}

type benchmarkDTO struct {
	Symbol       string            `json:"symbol"`
	HasBenchmark bool              `json:"has_benchmark"`
	Rows         []benchmarkRowDTO `json:"rows"`
	Metrics      benchmark.Metrics `json:"metrics"`
}

type comparisonDTO struct {
	Date      string              `json:"date"`
	Portfolio *float64            `json:"portfolio"`
	Symbols   map[string]*float64 `json:"symbols"`
}

type reportDTO struct {
	Series     []valuationDTO      `json:"series"`
	Risk       domain.RiskSnapshot `json:"risk"`
	Drawdown   []drawdownDTO       `json:"drawdown"`
	Rolling    []rollingDTO        `json:"rolling"`
	Monthly    []monthlyDTO        `json:"monthly"`
	Heatmap    heatmapDTO          `json:"heatmap"`
	Benchmark  *benchmarkDTO       `json:"benchmark,omitempty"`
	Comparison []comparisonDTO     `json:"comparison,omitempty"`
}

func toReportDTO(r *portfolio.Report) reportDTO {
	out := reportDTO{
		Series:   make([]valuationDTO, len(r.Series)),
		Risk:     sanitizeRisk(r.Risk),
		Drawdown: make([]drawdownDTO, len(r.Drawdown)),
		Rolling:  make([]rollingDTO, len(r.Rolling)),
		Monthly:  make([]monthlyDTO, len(r.Monthly)),
		Heatmap:  heatmapDTO{Years: r.Heatmap.Years, Cells: make([][12]*float64, len(r.Heatmap.Cells))},
	}
	if out.Heatmap.Years == nil {
		out.Heatmap.Years = []int{}
	}

	for i, v := range r.Series {
		out.Series[i] = valuationDTO{
			Date:                utils.FormatDate(v.Date),
			Components:          v.Components,
			TotalValue:          v.TotalValue,
			DailyReturnPct:      utils.Finite(v.DailyReturnPct),
			CumulativeReturnPct: utils.Finite(v.CumulativeReturnPct),
			MissingPrices:       v.MissingPrices,
		}
	}

	for i, p := range r.Drawdown {
		out.Drawdown[i] = drawdownDTO{
			Date:        utils.FormatDate(p.Date),
			Value:       p.Value,
			Peak:        p.Peak,
			Drawdown:    p.Drawdown,
			DrawdownPct: p.DrawdownPct,
		}
	}

	for i, p := range r.Rolling {
		out.Rolling[i] = rollingDTO{
			Date:                 utils.FormatDate(p.Date),
			AnnualizedReturn:     utils.Finite(p.AnnualizedReturn),
			AnnualizedVolatility: utils.Finite(p.AnnualizedVolatility),
			Sharpe:               utils.Finite(p.Sharpe),
		}
	}

	for i, m := range r.Monthly {
		out.Monthly[i] = monthlyDTO{
			Year:      m.Year,
			Month:     int(m.Month),
			Date:      utils.FormatDate(m.Date),
			Value:     m.Value,
			ReturnPct: utils.Finite(m.ReturnPct),
		}
	}

	for i, row := range r.Heatmap.Cells {
		for m, v := range row {
			out.Heatmap.Cells[i][m] = utils.Finite(v)
		}
	}

	if r.Benchmark != nil {
		out.Benchmark = toBenchmarkDTO(r.Benchmark)
	}

	if len(r.Comparison) > 0 {
		out.Comparison = make([]comparisonDTO, len(r.Comparison))
		for i, row := range r.Comparison {
			symbols := make(map[string]*float64, len(row.Symbols))
			for s, v := range row.Symbols {
				symbols[s] = utils.Finite(v)
			}
			out.Comparison[i] = comparisonDTO{
				Date:      utils.FormatDate(row.Date),
				Portfolio: utils.Finite(row.Portfolio),
				Symbols:   symbols,
			}
		}
	}

	return out
}

func toBenchmarkDTO(c *benchmark.Comparison) *benchmarkDTO {
	out := &benchmarkDTO{
		Symbol:       c.Symbol,
		HasBenchmark: c.HasBenchmark,
		Rows:         make([]benchmarkRowDTO, len(c.Rows)),
		Metrics:      c.Metrics,
	}
	out.Metrics.Correlation = utils.ZeroIfUndefined(out.Metrics.Correlation)

	for i, row := range c.Rows {
		out.Rows[i] = benchmarkRowDTO{
			Date:                   utils.FormatDate(row.Date),
			PortfolioValue:         row.PortfolioValue,
			PortfolioReturnPct:     utils.Finite(row.PortfolioReturnPct),
			PortfolioCumulativePct: utils.Finite(row.PortfolioCumulativePct),
			BenchmarkClose:         utils.Finite(row.BenchmarkClose),
			BenchmarkReturnPct:     utils.Finite(row.BenchmarkReturnPct),
			BenchmarkCumulativePct: utils.Finite(row.BenchmarkCumulativePct),
			AlphaPct:               utils.Finite(row.AlphaPct),
			CumulativeAlphaPct:     utils.Finite(row.CumulativeAlphaPct),
		}
	}
	return out
}

// sanitizeRisk zeroes the fields that can be undefined
func sanitizeRisk(s domain.RiskSnapshot) domain.RiskSnapshot {
	s.TotalReturnPct = utils.ZeroIfUndefined(s.TotalReturnPct)
	s.CVaR95 = utils.ZeroIfUndefined(s.CVaR95)
	s.CVaR99 = utils.ZeroIfUndefined(s.CVaR99)
	return s
}
