package pipeline

import (
	"sort"

	"github.com/dnovoa/purchase-planner/internal/domain"
)

// ApplyFilter keeps rows satisfying every threshold simultaneously: margin,
// profit and revenue minimums are conjunctive. Input order is preserved, so
// an all-zero parameter set returns the rows unchanged.
func ApplyFilter(rows []domain.RecommendationRow, p domain.FilterParams) []domain.RecommendationRow {
	out := make([]domain.RecommendationRow, 0, len(rows))
	for _, row := range rows {
		if row.MarginPct < p.MinMarginPct {
			continue
		}
		if row.Profit < p.MinProfit {
			continue
		}
		if row.LatestRevenue < p.MinRevenue {
			continue
		}
		out = append(out, row)
	}
	return out
}

// TopByProfit returns a read-only view of the n most profitable rows. The
// input slice is never reordered or mutated.
func TopByProfit(rows []domain.RecommendationRow, n int) []domain.RecommendationRow {
	if n <= 0 || len(rows) == 0 {
		return nil
	}

	sorted := make([]domain.RecommendationRow, len(rows))
	copy(sorted, rows)
	sortByProfit(sorted)

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// sortByProfit orders rows by descending profit with SKU as tiebreak, the
// stable ordering every surfaced row set uses.
func sortByProfit(rows []domain.RecommendationRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Profit != rows[j].Profit {
			return rows[i].Profit > rows[j].Profit
		}
		return rows[i].SKU < rows[j].SKU
	})
}
