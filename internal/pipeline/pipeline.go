// Package pipeline implements the consolidation-and-recommendation engine:
// source tables are normalized into one dataset, aggregated per product,
// projected forward and joined with profitability into a ranked purchase
// recommendation. One run recomputes everything from the source; there is no
// state carried between runs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/internal/tabular"
	"github.com/dnovoa/purchase-planner/pkg/logger"
)

// Planner runs the full load, aggregate, forecast, profitability and join
// pass and returns the recommendation rows.
type Planner struct {
	loader   *Loader
	forecast *ForecastEngine
	costs    CostSource
	cfg      Config
}

// NewPlanner wires the engine against a table source and cost reference.
func NewPlanner(src tabular.Source, costs CostSource, cfg Config) *Planner {
	if cfg.TablePrefix == "" {
		cfg.TablePrefix = DefaultConfig().TablePrefix
	}
	if cfg.Columns == (ColumnMapping{}) {
		cfg.Columns = DefaultColumnMapping()
	}
	return &Planner{
		loader:   NewLoader(src, cfg.TablePrefix, cfg.Columns),
		forecast: NewForecastEngine(cfg.Forecast),
		costs:    costs,
		cfg:      cfg,
	}
}

// Run executes one synchronous pipeline pass. It either completes with a
// full RunResult or fails before producing any output; partial results are
// never returned.
func (p *Planner) Run(ctx context.Context) (*domain.RunResult, error) {
	start := time.Now()
	log := logger.With("planner")

	ds, err := p.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	latest, ok := LatestPeriod(ds.Records)
	if !ok {
		return nil, fmt.Errorf("%w (tables: %v)", ErrNoUsablePeriod, ds.Tables)
	}

	byPeriod := AggregateByProductPeriod(ds.Records)
	latestAggs := AggregateLatestPeriod(ds.Records, latest)
	forecasts := p.forecast.Forecast(ds.Records, byPeriod, latest)
	profits := ComputeProfitability(latestAggs, p.costs, p.cfg.Profitability)

	rows := joinRows(latestAggs, forecasts, profits)
	sortByProfit(rows)

	result := &domain.RunResult{
		GeneratedAt:  time.Now(),
		LatestPeriod: latest,
		Periods:      distinctPeriods(byPeriod),
		SourceTables: ds.Tables,
		TotalRecords: len(ds.Records),
		SkippedRows:  ds.SkippedRows,
		Rows:         rows,
	}

	log.Info().
		Int("latest_period", latest).
		Int("products", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run completed")

	return result, nil
}

// Series recomputes the monthly revenue series for the given group level.
// When params carry thresholds, only products surviving the filter
// contribute, matching how the original tool charts filtered SKUs only.
func (p *Planner) Series(ctx context.Context, params domain.FilterParams) ([]domain.GroupSeries, error) {
	ds, err := p.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	var include map[string]bool
	if params.MinMarginPct > 0 || params.MinProfit > 0 || params.MinRevenue > 0 {
		result, err := p.Run(ctx)
		if err != nil {
			return nil, err
		}
		include = make(map[string]bool)
		for _, row := range ApplyFilter(result.Rows, params) {
			include[row.SKU] = true
		}
	}

	level := params.GroupBy
	if level == "" {
		level = domain.GroupBySKU
	}
	return MonthlySeries(ds.Records, level, include), nil
}

// joinRows merges forecast and profitability on SKU. Only products present
// in both tables survive; profitability may have excluded products with an
// unresolvable cost.
func joinRows(aggs []domain.ProductAggregate, forecasts []domain.ProductForecast, profits []domain.ProductProfitability) []domain.RecommendationRow {
	names := make(map[string]string, len(aggs))
	quantities := make(map[string]float64, len(aggs))
	for _, agg := range aggs {
		names[agg.SKU] = agg.ProductName
		quantities[agg.SKU] = agg.Quantity
	}

	profitBySKU := make(map[string]domain.ProductProfitability, len(profits))
	for _, pr := range profits {
		profitBySKU[pr.SKU] = pr
	}

	var rows []domain.RecommendationRow
	for _, fc := range forecasts {
		pr, ok := profitBySKU[fc.SKU]
		if !ok {
			continue
		}
		rows = append(rows, domain.RecommendationRow{
			SKU:             fc.SKU,
			ProductName:     names[fc.SKU],
			LatestRevenue:   fc.LatestRevenue,
			LatestQuantity:  quantities[fc.SKU],
			GrowthRate:      fc.GrowthRate,
			ProjectedDemand: fc.ProjectedDemand,
			Variability:     fc.Variability,
			SafetyStock:     fc.SafetyStock,
			RecommendedQty:  fc.RecommendedQty,
			UnitCost:        pr.UnitCost,
			TotalCost:       pr.TotalCost,
			Profit:          pr.Profit,
			MarginPct:       pr.MarginPct,
			MissingCost:     pr.MissingCost,
		})
	}
	return rows
}

func distinctPeriods(byPeriod []domain.ProductPeriodAggregate) []int {
	seen := make(map[int]bool)
	var out []int
	for _, agg := range byPeriod {
		if !seen[agg.Period] {
			seen[agg.Period] = true
			out = append(out, agg.Period)
		}
	}
	// byPeriod is sorted by (SKU, period); re-sort the distinct set.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
