package costs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnovoa/purchase-planner/internal/tabular"
)

func TestStaticCosts(t *testing.T) {
	costs := StaticCosts{"SKU001": 40}

	cost, ok := costs.UnitCost("SKU001")
	assert.True(t, ok)
	assert.InDelta(t, 40, cost, 1e-9)

	_, ok = costs.UnitCost("UNKNOWN")
	assert.False(t, ok)
}

func TestLoadTableCosts(t *testing.T) {
	store := tabular.NewMemoryStore()
	store.AddTable(&tabular.Table{
		Name:   "costos",
		Header: []string{"SKU", "Moneda", "Costo Unitario"},
		Rows: [][]string{
			{"SKU001", "x", "40.50"},
			{"SKU002", "x", "1,250"},
			{"", "x", "10"},
			{"SKU003", "x", "not-a-number"},
			{"SKU004"},
		},
	})

	costs, err := LoadTableCosts(context.Background(), store, "costos", "SKU", "Costo Unitario")
	require.NoError(t, err)

	cost, ok := costs.UnitCost("SKU001")
	assert.True(t, ok)
	assert.InDelta(t, 40.50, cost, 1e-9)

	// Thousands separators are stripped before parsing.
	cost, ok = costs.UnitCost("SKU002")
	assert.True(t, ok)
	assert.InDelta(t, 1250, cost, 1e-9)

	_, ok = costs.UnitCost("SKU003")
	assert.False(t, ok)
	_, ok = costs.UnitCost("SKU004")
	assert.False(t, ok)
	_, ok = costs.UnitCost("")
	assert.False(t, ok)
}

func TestLoadTableCostsHeaderNormalization(t *testing.T) {
	store := tabular.NewMemoryStore()
	store.AddTable(&tabular.Table{
		Name:   "costos",
		Header: []string{"sku", "costo_unitario"},
		Rows:   [][]string{{"SKU001", "12"}},
	})

	costs, err := LoadTableCosts(context.Background(), store, "costos", "SKU", "Costo Unitario")
	require.NoError(t, err)

	cost, ok := costs.UnitCost("SKU001")
	assert.True(t, ok)
	assert.InDelta(t, 12, cost, 1e-9)
}

func TestLoadTableCostsMissingColumns(t *testing.T) {
	store := tabular.NewMemoryStore()
	store.AddTable(&tabular.Table{
		Name:   "costos",
		Header: []string{"SKU", "Precio"},
	})

	_, err := LoadTableCosts(context.Background(), store, "costos", "SKU", "Costo Unitario")
	assert.Error(t, err)
}

func TestLoadTableCostsTableNotFound(t *testing.T) {
	_, err := LoadTableCosts(context.Background(), tabular.NewMemoryStore(), "missing", "SKU", "Costo Unitario")
	assert.Error(t, err)
}
