package pipeline

import (
	"sort"

	"github.com/dnovoa/purchase-planner/internal/domain"
)

// AggregateByProductPeriod groups records by (SKU, period), summing revenue
// and quantity. Records with a null period are excluded. Exactly one row per
// distinct key, sorted by SKU then period.
func AggregateByProductPeriod(records []domain.SalesRecord) []domain.ProductPeriodAggregate {
	type key struct {
		sku    string
		period int
	}

	byKey := make(map[key]*domain.ProductPeriodAggregate)
	for _, r := range records {
		if r.Period == nil {
			continue
		}
		k := key{sku: r.SKU, period: *r.Period}
		agg, ok := byKey[k]
		if !ok {
			agg = &domain.ProductPeriodAggregate{SKU: r.SKU, Period: *r.Period}
			byKey[k] = agg
		}
		agg.Revenue += r.Revenue()
		agg.Quantity += r.Quantity
		agg.Records++
	}

	out := make([]domain.ProductPeriodAggregate, 0, len(byKey))
	for _, agg := range byKey {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// LatestPeriod returns the maximum period across all records with a non-null
// period. The second return is false when every period is null.
func LatestPeriod(records []domain.SalesRecord) (int, bool) {
	latest, found := 0, false
	for _, r := range records {
		if r.Period == nil {
			continue
		}
		if !found || *r.Period > latest {
			latest = *r.Period
			found = true
		}
	}
	return latest, found
}

// AggregateLatestPeriod groups by product over the given period only, summing
// revenue and quantity and carrying the first non-empty display name. Sorted
// by SKU.
func AggregateLatestPeriod(records []domain.SalesRecord, period int) []domain.ProductAggregate {
	bySKU := make(map[string]*domain.ProductAggregate)
	for _, r := range records {
		if r.Period == nil || *r.Period != period {
			continue
		}
		agg, ok := bySKU[r.SKU]
		if !ok {
			agg = &domain.ProductAggregate{SKU: r.SKU}
			bySKU[r.SKU] = agg
		}
		if agg.ProductName == "" {
			agg.ProductName = r.ProductName
		}
		agg.Revenue += r.Revenue()
		agg.Quantity += r.Quantity
		agg.Records++
	}

	out := make([]domain.ProductAggregate, 0, len(bySKU))
	for _, agg := range bySKU {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// MonthlySeries builds per-group monthly revenue series from records with a
// valid transaction date. Level selects the grouping attribute; when include
// is non-nil, only records whose SKU is in the set contribute. Groups and
// points are sorted for deterministic output.
func MonthlySeries(records []domain.SalesRecord, level domain.GroupLevel, include map[string]bool) []domain.GroupSeries {
	byGroup := make(map[string]map[string]float64)
	for _, r := range records {
		if !r.ValidDate {
			continue
		}
		if include != nil && !include[r.SKU] {
			continue
		}

		key := groupKey(r, level)
		if key == "" {
			continue
		}

		month := r.Date.Format("2006-01")
		if byGroup[key] == nil {
			byGroup[key] = make(map[string]float64)
		}
		byGroup[key][month] += r.Revenue()
	}

	out := make([]domain.GroupSeries, 0, len(byGroup))
	for key, months := range byGroup {
		series := domain.GroupSeries{Key: key}
		for month, revenue := range months {
			series.Points = append(series.Points, domain.SeriesPoint{Month: month, Revenue: revenue})
		}
		sort.Slice(series.Points, func(i, j int) bool { return series.Points[i].Month < series.Points[j].Month })
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func groupKey(r domain.SalesRecord, level domain.GroupLevel) string {
	switch level {
	case domain.GroupByType:
		return r.ProductType
	case domain.GroupByProduct:
		return r.ProductName
	case domain.GroupByVariant:
		return r.Variant
	default:
		return r.SKU
	}
}
