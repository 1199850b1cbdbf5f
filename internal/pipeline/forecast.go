package pipeline

import (
	"math"
	"sort"

	"github.com/dnovoa/purchase-planner/internal/domain"
)

// ForecastEngine projects next-period demand per product and sizes a safety
// stock from sales variability.
type ForecastEngine struct {
	cfg ForecastConfig
}

// NewForecastEngine builds an engine; a non-positive Z falls back to the
// default service level.
func NewForecastEngine(cfg ForecastConfig) *ForecastEngine {
	if cfg.ZValue <= 0 {
		cfg.ZValue = DefaultForecastConfig().ZValue
	}
	if cfg.Basis == "" {
		cfg.Basis = BasisPeriods
	}
	return &ForecastEngine{cfg: cfg}
}

// Forecast computes one ProductForecast per product present in the latest
// period. byPeriod must be the (SKU, period) aggregate of the same records.
// Results are sorted by SKU.
func (e *ForecastEngine) Forecast(records []domain.SalesRecord, byPeriod []domain.ProductPeriodAggregate, latestPeriod int) []domain.ProductForecast {
	history := make(map[string][]domain.ProductPeriodAggregate)
	for _, agg := range byPeriod {
		history[agg.SKU] = append(history[agg.SKU], agg)
	}
	// byPeriod is sorted by (SKU, period), so each product's history is
	// already in period order.

	variability := e.variabilityBySKU(records, history)

	var out []domain.ProductForecast
	for sku, series := range history {
		latest, ok := periodValue(series, latestPeriod)
		if !ok {
			continue
		}

		rate := growthRate(series)
		projected := roundNonNeg(latest * (1 + rate))
		std := variability[sku]
		safety := roundNonNeg(e.cfg.ZValue * std)

		out = append(out, domain.ProductForecast{
			SKU:             sku,
			LatestRevenue:   latest,
			GrowthRate:      rate,
			ProjectedDemand: projected,
			Variability:     std,
			SafetyStock:     safety,
			RecommendedQty:  projected + safety,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// growthRate is the compound rate between the product's own earliest and
// latest period values: (latest/earliest)^(1/span) - 1. A single period,
// non-positive span or non-positive earliest value all yield 0, which keeps
// the projection at the latest value and avoids complex results from
// fractional exponents on negative bases.
func growthRate(series []domain.ProductPeriodAggregate) float64 {
	if len(series) < 2 {
		return 0
	}

	earliest := series[0]
	latest := series[len(series)-1]
	span := latest.Period - earliest.Period
	if span <= 0 || earliest.Revenue <= 0 {
		return 0
	}

	rate := math.Pow(latest.Revenue/earliest.Revenue, 1/float64(span)) - 1
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

func (e *ForecastEngine) variabilityBySKU(records []domain.SalesRecord, history map[string][]domain.ProductPeriodAggregate) map[string]float64 {
	out := make(map[string]float64, len(history))

	if e.cfg.Basis == BasisRecords {
		revenues := make(map[string][]float64)
		for _, r := range records {
			revenues[r.SKU] = append(revenues[r.SKU], r.Revenue())
		}
		for sku, values := range revenues {
			out[sku] = sampleStdDev(values)
		}
		return out
	}

	for sku, series := range history {
		values := make([]float64, len(series))
		for i, agg := range series {
			values[i] = agg.Revenue
		}
		out[sku] = sampleStdDev(values)
	}
	return out
}

func periodValue(series []domain.ProductPeriodAggregate, period int) (float64, bool) {
	for _, agg := range series {
		if agg.Period == period {
			return agg.Revenue, true
		}
	}
	return 0, false
}
