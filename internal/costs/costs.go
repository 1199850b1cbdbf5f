// Package costs provides the unit-cost reference collaborator: a mapping
// from product identifier to unit cost, sourced from an injected map, a
// table in the tabular store, or a Postgres table.
package costs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dnovoa/purchase-planner/internal/tabular"
	"github.com/dnovoa/purchase-planner/pkg/logger"
)

// StaticCosts is an injected SKU to unit cost dictionary.
type StaticCosts map[string]float64

// UnitCost implements pipeline.CostSource.
func (s StaticCosts) UnitCost(sku string) (float64, bool) {
	cost, ok := s[sku]
	return cost, ok
}

// TableCosts reads a cost table from the tabular store once and serves
// lookups from memory for the duration of a run.
type TableCosts struct {
	costs map[string]float64
}

// LoadTableCosts reads the named table, expecting a SKU column and a unit
// cost column. Rows with an empty SKU or a non-numeric cost are skipped.
func LoadTableCosts(ctx context.Context, src tabular.Source, tableName, skuColumn, costColumn string) (*TableCosts, error) {
	table, err := src.ReadTable(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read cost table %s: %w", tableName, err)
	}

	skuIdx, costIdx := -1, -1
	for i, h := range table.Header {
		switch normalize(h) {
		case normalize(skuColumn):
			skuIdx = i
		case normalize(costColumn):
			costIdx = i
		}
	}
	if skuIdx < 0 || costIdx < 0 {
		return nil, fmt.Errorf("cost table %s must have columns %q and %q", tableName, skuColumn, costColumn)
	}

	log := logger.With("costs")
	out := &TableCosts{costs: make(map[string]float64, len(table.Rows))}
	for _, row := range table.Rows {
		if skuIdx >= len(row) || costIdx >= len(row) {
			continue
		}
		sku := strings.TrimSpace(row[skuIdx])
		if sku == "" {
			continue
		}
		cost, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(row[costIdx]), ",", ""), 64)
		if err != nil {
			log.Warn().Str("sku", sku).Str("value", row[costIdx]).Msg("skipping non-numeric unit cost")
			continue
		}
		out.costs[sku] = cost
	}

	log.Info().Str("table", tableName).Int("entries", len(out.costs)).Msg("cost reference loaded")
	return out, nil
}

// UnitCost implements pipeline.CostSource.
func (t *TableCosts) UnitCost(sku string) (float64, bool) {
	cost, ok := t.costs[sku]
	return cost, ok
}

var normalizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalize(name string) string {
	return normalizer.Replace(strings.TrimSpace(strings.ToLower(name)))
}
