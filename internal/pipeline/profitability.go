package pipeline

import (
	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/pkg/logger"
)

// ComputeProfitability derives cost, profit and margin for every product in
// the latest-period aggregate. Products whose unit cost cannot be resolved
// are priced at the configured fallback, or excluded entirely when no
// fallback policy is set; exclusion is a data-completeness issue, never a
// crash. Zero revenue yields margin 0, not NaN.
func ComputeProfitability(aggs []domain.ProductAggregate, costs CostSource, cfg ProfitabilityConfig) []domain.ProductProfitability {
	log := logger.With("profitability")

	out := make([]domain.ProductProfitability, 0, len(aggs))
	for _, agg := range aggs {
		unitCost, ok := costs.UnitCost(agg.SKU)
		missing := false
		if !ok {
			if cfg.FallbackUnitCost == nil {
				log.Warn().Str("sku", agg.SKU).Msg("no unit cost entry and no fallback configured, excluding product")
				continue
			}
			unitCost = *cfg.FallbackUnitCost
			missing = true
		}

		totalCost := unitCost * agg.Quantity
		profit := agg.Revenue - totalCost

		marginPct := 0.0
		if agg.Revenue > 0 {
			marginPct = 100 * profit / agg.Revenue
		}

		out = append(out, domain.ProductProfitability{
			SKU:         agg.SKU,
			UnitCost:    unitCost,
			TotalCost:   totalCost,
			Revenue:     agg.Revenue,
			Profit:      profit,
			MarginPct:   marginPct,
			MissingCost: missing,
		})
	}
	return out
}
