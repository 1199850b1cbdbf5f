package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnovoa/purchase-planner/internal/domain"
)

type mapCosts map[string]float64

func (m mapCosts) UnitCost(sku string) (float64, bool) {
	cost, ok := m[sku]
	return cost, ok
}

func TestComputeProfitability(t *testing.T) {
	aggs := []domain.ProductAggregate{
		{SKU: "SKU001", Revenue: 1200, Quantity: 12},
		{SKU: "SKU002", Revenue: 500, Quantity: 10},
	}
	costs := mapCosts{"SKU001": 40, "SKU002": 60}

	out := ComputeProfitability(aggs, costs, ProfitabilityConfig{})

	require.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, "SKU001", first.SKU)
	assert.InDelta(t, 480, first.TotalCost, 1e-9)
	assert.InDelta(t, 720, first.Profit, 1e-9)
	assert.InDelta(t, 60, first.MarginPct, 1e-9)
	assert.False(t, first.MissingCost)

	// Costs above revenue produce a negative profit and margin, not a clamp.
	second := out[1]
	assert.InDelta(t, -100, second.Profit, 1e-9)
	assert.InDelta(t, -20, second.MarginPct, 1e-9)
}

func TestComputeProfitabilityZeroRevenueMargin(t *testing.T) {
	aggs := []domain.ProductAggregate{{SKU: "SKU001", Revenue: 0, Quantity: 0}}

	out := ComputeProfitability(aggs, mapCosts{"SKU001": 40}, ProfitabilityConfig{})

	require.Len(t, out, 1)
	assert.Zero(t, out[0].MarginPct)
	assert.Zero(t, out[0].Profit)
}

func TestComputeProfitabilityMissingCostExcludedByDefault(t *testing.T) {
	aggs := []domain.ProductAggregate{
		{SKU: "SKU001", Revenue: 1200, Quantity: 12},
		{SKU: "UNKNOWN", Revenue: 300, Quantity: 3},
	}

	out := ComputeProfitability(aggs, mapCosts{"SKU001": 40}, ProfitabilityConfig{})

	require.Len(t, out, 1)
	assert.Equal(t, "SKU001", out[0].SKU)
}

func TestComputeProfitabilityMissingCostFallback(t *testing.T) {
	fallback := 25.0
	aggs := []domain.ProductAggregate{{SKU: "UNKNOWN", Revenue: 300, Quantity: 3}}

	out := ComputeProfitability(aggs, mapCosts{}, ProfitabilityConfig{FallbackUnitCost: &fallback})

	require.Len(t, out, 1)
	assert.True(t, out[0].MissingCost)
	assert.InDelta(t, 25, out[0].UnitCost, 1e-9)
	assert.InDelta(t, 75, out[0].TotalCost, 1e-9)
	assert.InDelta(t, 225, out[0].Profit, 1e-9)
}
