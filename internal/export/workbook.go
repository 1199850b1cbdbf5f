package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/internal/pipeline"
)

// Workbook sheet names. The main data sheet always comes first.
const (
	SheetOrder  = "OrdenCompra"
	SheetAlerts = "AlertasStock"
	SheetKPI    = "ResumenKPI"
)

// WorkbookOptions toggles the supplementary sheets.
type WorkbookOptions struct {
	IncludeAlerts bool
	IncludeKPI    bool
}

// Workbook renders the rows as an xlsx workbook in memory. The first sheet
// holds the order data; alerts and KPI summary sheets are optional.
func Workbook(rows []domain.RecommendationRow, opts WorkbookOptions) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), SheetOrder)
	if err := writeOrderSheet(f, rows); err != nil {
		return nil, err
	}

	if opts.IncludeAlerts {
		if err := writeAlertSheet(f, rows); err != nil {
			return nil, err
		}
	}
	if opts.IncludeKPI {
		if err := writeKPISheet(f, rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeOrderSheet(f *excelize.File, rows []domain.RecommendationRow) error {
	if err := writeStringRow(f, SheetOrder, 1, DisplayHeader); err != nil {
		return err
	}
	for i, row := range rows {
		cells := []interface{}{
			row.SKU,
			row.ProductName,
			row.LatestRevenue,
			100 * row.GrowthRate,
			row.ProjectedDemand,
			row.Variability,
			row.SafetyStock,
			row.RecommendedQty,
			row.UnitCost,
			row.TotalCost,
			row.Profit,
			row.MarginPct,
		}
		if err := writeRow(f, SheetOrder, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

// writeAlertSheet lists products whose recommended order volume exceeds the
// units actually sold in the latest period, the cases worth a second look
// before committing the order.
func writeAlertSheet(f *excelize.File, rows []domain.RecommendationRow) error {
	if _, err := f.NewSheet(SheetAlerts); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetAlerts, err)
	}

	header := []string{"SKU", "Producto", "Unidades Últ. Año", "Cant. Recomendada", "Exceso"}
	if err := writeStringRow(f, SheetAlerts, 1, header); err != nil {
		return err
	}

	line := 2
	for _, row := range rows {
		excess := float64(row.RecommendedQty) - row.LatestQuantity
		if excess <= 0 {
			continue
		}
		cells := []interface{}{row.SKU, row.ProductName, row.LatestQuantity, row.RecommendedQty, excess}
		if err := writeRow(f, SheetAlerts, line, cells); err != nil {
			return err
		}
		line++
	}
	return nil
}

func writeKPISheet(f *excelize.File, rows []domain.RecommendationRow) error {
	if _, err := f.NewSheet(SheetKPI); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetKPI, err)
	}

	var totalRevenue, totalProfit, marginSum float64
	totalRecommended := 0
	for _, row := range rows {
		totalRevenue += row.LatestRevenue
		totalProfit += row.Profit
		marginSum += row.MarginPct
		totalRecommended += row.RecommendedQty
	}
	meanMargin := 0.0
	if len(rows) > 0 {
		meanMargin = marginSum / float64(len(rows))
	}

	kpis := [][]interface{}{
		{"Indicador", "Valor"},
		{"Productos", len(rows)},
		{"Ventas Últ. Año", totalRevenue},
		{"Utilidad Total", totalProfit},
		{"Margen Promedio %", meanMargin},
		{"Unidades Recomendadas", totalRecommended},
	}
	line := 1
	for _, cells := range kpis {
		if err := writeRow(f, SheetKPI, line, cells); err != nil {
			return err
		}
		line++
	}

	// Top 5 by profit, the same ranking the operator sees in the dashboard.
	line++
	if err := writeStringRow(f, SheetKPI, line, []string{"Top 5 por Utilidad", ""}); err != nil {
		return err
	}
	line++
	for _, row := range pipeline.TopByProfit(rows, 5) {
		if err := writeRow(f, SheetKPI, line, []interface{}{row.SKU, row.Profit}); err != nil {
			return err
		}
		line++
	}
	return nil
}

func writeStringRow(f *excelize.File, sheet string, line int, cells []string) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return writeRow(f, sheet, line, values)
}

func writeRow(f *excelize.File, sheet string, line int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return fmt.Errorf("invalid row coordinate %d: %w", line, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", line, sheet, err)
	}
	return nil
}
