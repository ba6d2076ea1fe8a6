package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

const (
	strategyBuyHold = "buy_and_hold"
	strategyDCA     = "dca"

	defaultMetric = "annualized_return_pct"
	defaultLimit  = 100
	maxLimit      = 1000
)

// leaderboardQuery is the parsed filter set shared by the leaderboard and
// stats endpoints.
type leaderboardQuery struct {
	strategy string
	rank     storage.RankQuery
	symbols  map[string]bool // optional allowlist, nil means all
}

func parseLeaderboardQuery(r *http.Request) (leaderboardQuery, error) {
	q := leaderboardQuery{
		strategy: strategyBuyHold,
		rank: storage.RankQuery{
			Metric: defaultMetric,
			Limit:  defaultLimit,
		},
	}

	if v := r.URL.Query().Get("strategy"); v != "" {
		if v != strategyBuyHold && v != strategyDCA {
			return q, errors.New("strategy must be buy_and_hold or dca")
		}
		q.strategy = v
	}
	if v := r.URL.Query().Get("metric"); v != "" {
		q.rank.Metric = v
	}
	if v := r.URL.Query().Get("years"); v != "" {
		years, err := strconv.Atoi(v)
		if err != nil || years < 0 {
			return q, errors.New("years must be a non-negative integer")
		}
		q.rank.HoldingYears = years
	}
	if v := r.URL.Query().Get("class"); v != "" {
		q.rank.Class = domain.AssetClass(v)
	}
	if v := r.URL.Query().Get("frequency"); v != "" {
		q.rank.Frequency = domain.Frequency(v)
	}
	if v := r.URL.Query().Get("order"); v != "" {
		switch v {
		case "asc":
			q.rank.Ascending = true
		case "desc":
		default:
			return q, errors.New("order must be asc or desc")
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return q, errors.New("limit must be a positive integer")
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		q.rank.Limit = limit
	}
	if v := r.URL.Query().Get("symbols"); v != "" {
		q.symbols = make(map[string]bool)
		for _, symbol := range strings.Split(v, ",") {
			if symbol = strings.TrimSpace(symbol); symbol != "" {
				q.symbols[symbol] = true
			}
		}
	}

	return q, nil
}

// leaderboardResponse wraps one ranked page.
type leaderboardResponse struct {
	Strategy string `json:"strategy"`
	Metric   string `json:"metric"`
	Count    int    `json:"count"`
	Results  any    `json:"results"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseLeaderboardQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := leaderboardResponse{Strategy: q.strategy, Metric: q.rank.Metric}
	switch q.strategy {
	case strategyDCA:
		records, err := s.dca.Rank(r.Context(), q.rank)
		if err != nil {
			s.rankError(w, err)
			return
		}
		results := make([]dcaJSON, 0, len(records))
		for _, rec := range records {
			results = append(results, toDCAJSON(rec))
		}
		resp.Count, resp.Results = len(results), results
	default:
		records, err := s.buyHold.Rank(r.Context(), q.rank)
		if err != nil {
			s.rankError(w, err)
			return
		}
		results := make([]buyHoldJSON, 0, len(records))
		for _, rec := range records {
			results = append(results, toBuyHoldJSON(rec))
		}
		resp.Count, resp.Results = len(results), results
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) rankError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrInvalidInput) {
		s.respondError(w, http.StatusBadRequest, "unknown ranking metric")
		return
	}
	s.log.Error().Err(err).Msg("rank query failed")
	s.respondError(w, http.StatusInternalServerError, "internal error")
}

// metricSummary is the distribution of one metric across the ranked set.
type metricSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
}

// statsResponse aggregates the ranked set per metric.
type statsResponse struct {
	Strategy string                   `json:"strategy"`
	Count    int                      `json:"count"`
	Metrics  map[string]metricSummary `json:"metrics"`
}

func (s *Server) handleLeaderboardStats(w http.ResponseWriter, r *http.Request) {
	q, err := parseLeaderboardQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.rank.Limit = 0 // stats run over the whole filtered set

	samples := make(map[string][]float64)
	var count int
	switch q.strategy {
	case strategyDCA:
		records, err := s.dca.Rank(r.Context(), q.rank)
		if err != nil {
			s.rankError(w, err)
			return
		}
		for _, rec := range records {
			if q.symbols != nil && !q.symbols[rec.Symbol] {
				continue
			}
			count++
			samples["annualized_return_pct"] = append(samples["annualized_return_pct"], rec.AnnualizedReturnPct)
			samples["max_drawdown_pct"] = append(samples["max_drawdown_pct"], rec.MaxDrawdownPct)
			samples["sharpe_ratio"] = append(samples["sharpe_ratio"], rec.SharpeRatio)
			samples["dca_vs_lumpsum_diff"] = append(samples["dca_vs_lumpsum_diff"], rec.DCAvsLumpsumDiff)
		}
	default:
		records, err := s.buyHold.Rank(r.Context(), q.rank)
		if err != nil {
			s.rankError(w, err)
			return
		}
		for _, rec := range records {
			if q.symbols != nil && !q.symbols[rec.Symbol] {
				continue
			}
			count++
			samples["annualized_return_pct"] = append(samples["annualized_return_pct"], rec.AnnualizedReturnPct)
			samples["max_drawdown_pct"] = append(samples["max_drawdown_pct"], rec.MaxDrawdownPct)
			samples["sharpe_ratio"] = append(samples["sharpe_ratio"], rec.SharpeRatio)
			samples["win_rate_pct"] = append(samples["win_rate_pct"], rec.WinRatePct)
		}
	}

	resp := statsResponse{
		Strategy: q.strategy,
		Count:    count,
		Metrics:  make(map[string]metricSummary, len(samples)),
	}
	for name, values := range samples {
		resp.Metrics[name] = summarize(values)
	}

	s.respond(w, http.StatusOK, resp)
}

func summarize(values []float64) metricSummary {
	if len(values) == 0 {
		return metricSummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	summary := metricSummary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		summary.StdDev = stat.StdDev(sorted, nil)
	}
	return summary
}

// buyHoldJSON is the wire form of one lump-sum window.
type buyHoldJSON struct {
	Symbol              string  `json:"symbol"`
	AssetClass          string  `json:"asset_class"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	HoldingYears        int     `json:"holding_period_years"`
	StartPrice          float64 `json:"start_price"`
	EndPrice            float64 `json:"end_price"`
	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	VolatilityPct       float64 `json:"volatility_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	MaxLossFromEntryPct float64 `json:"max_loss_from_entry_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	SortinoRatio        float64 `json:"sortino_ratio"`
	CalmarRatio         float64 `json:"calmar_ratio"`
	WinRatePct          float64 `json:"win_rate_pct"`
	TotalTradingDays    int     `json:"total_trading_days"`
	DataCompletenessPct float64 `json:"data_completeness_pct"`
}

func toBuyHoldJSON(rec *domain.BuyHoldRecord) buyHoldJSON {
	return buyHoldJSON{
		Symbol:              rec.Symbol,
		AssetClass:          string(rec.AssetClass),
		StartDate:           rec.StartDate.Format(time.DateOnly),
		EndDate:             rec.EndDate.Format(time.DateOnly),
		HoldingYears:        rec.HoldingYears,
		StartPrice:          rec.StartPrice,
		EndPrice:            rec.EndPrice,
		TotalReturnPct:      rec.TotalReturnPct,
		AnnualizedReturnPct: rec.AnnualizedReturnPct,
		VolatilityPct:       rec.VolatilityPct,
		MaxDrawdownPct:      rec.MaxDrawdownPct,
		MaxLossFromEntryPct: rec.MaxLossFromEntryPct,
		SharpeRatio:         rec.SharpeRatio,
		SortinoRatio:        rec.SortinoRatio,
		CalmarRatio:         rec.CalmarRatio,
		WinRatePct:          rec.WinRatePct,
		TotalTradingDays:    rec.TotalTradingDays,
		DataCompletenessPct: rec.DataCompletenessPct,
	}
}

// dcaJSON is the wire form of one DCA simulation.
type dcaJSON struct {
	Symbol               string  `json:"symbol"`
	AssetClass           string  `json:"asset_class"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	HoldingYears         int     `json:"holding_period_years"`
	Frequency            string  `json:"dca_frequency"`
	TotalInvested        float64 `json:"total_invested"`
	NumberOfPurchases    int     `json:"number_of_purchases"`
	AveragePurchasePrice float64 `json:"average_purchase_price"`
	TotalUnitsAcquired   float64 `json:"total_units_acquired"`
	FinalValue           float64 `json:"final_value"`
	TotalReturnPct       float64 `json:"total_return_pct"`
	AnnualizedReturnPct  float64 `json:"annualized_return_pct"`
	VolatilityPct        float64 `json:"volatility_pct"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"`
	MaxLossFromCostPct   float64 `json:"max_loss_from_cost_pct"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	SortinoRatio         float64 `json:"sortino_ratio"`
	CalmarRatio          float64 `json:"calmar_ratio"`
	LumpsumReturnPct     float64 `json:"lumpsum_return_pct"`
	DCAvsLumpsumDiff     float64 `json:"dca_vs_lumpsum_diff"`
}

func toDCAJSON(rec *domain.DCARecord) dcaJSON {
	return dcaJSON{
		Symbol:               rec.Symbol,
		AssetClass:           string(rec.AssetClass),
		StartDate:            rec.StartDate.Format(time.DateOnly),
		EndDate:              rec.EndDate.Format(time.DateOnly),
		HoldingYears:         rec.HoldingYears,
		Frequency:            string(rec.Frequency),
		TotalInvested:        rec.TotalInvested,
		NumberOfPurchases:    rec.NumberOfPurchases,
		AveragePurchasePrice: rec.AveragePurchasePrice,
		TotalUnitsAcquired:   rec.TotalUnitsAcquired,
		FinalValue:           rec.FinalValue,
		TotalReturnPct:       rec.TotalReturnPct,
		AnnualizedReturnPct:  rec.AnnualizedReturnPct,
		VolatilityPct:        rec.VolatilityPct,
		MaxDrawdownPct:       rec.MaxDrawdownPct,
		MaxLossFromCostPct:   rec.MaxLossFromCostPct,
		SharpeRatio:          rec.SharpeRatio,
		SortinoRatio:         rec.SortinoRatio,
		CalmarRatio:          rec.CalmarRatio,
		LumpsumReturnPct:     rec.LumpsumReturnPct,
		DCAvsLumpsumDiff:     rec.DCAvsLumpsumDiff,
	}
}
