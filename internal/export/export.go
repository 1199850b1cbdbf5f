// Package export serializes a finalized recommendation set to the two
// download formats (delimited text and spreadsheet workbook) and builds the
// projection table written back to the tabular store. All serializers are
// pure functions of their input; persistence belongs to the caller.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/internal/tabular"
)

// DisplayHeader is the human-readable header row used by the CSV and the
// workbook's main sheet. Kept in the language of the purchasing sheets.
var DisplayHeader = []string{
	"SKU",
	"Producto",
	"Ventas Últ. Año",
	"Crecimiento %",
	"Demanda Proyectada",
	"Variabilidad",
	"Stock Seguridad",
	"Cant. Recomendada",
	"Costo Unitario",
	"Costo Total",
	"Utilidad Anual",
	"Margen %",
}

// CSV renders rows as UTF-8 comma-separated text with the display header.
func CSV(rows []domain.RecommendationRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(DisplayHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(displayRecord(row)); err != nil {
			return nil, fmt.Errorf("failed to write csv row for %s: %w", row.SKU, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func displayRecord(r domain.RecommendationRow) []string {
	return []string{
		r.SKU,
		r.ProductName,
		money(r.LatestRevenue),
		strconv.FormatFloat(100*r.GrowthRate, 'f', 2, 64),
		strconv.Itoa(r.ProjectedDemand),
		money(r.Variability),
		strconv.Itoa(r.SafetyStock),
		strconv.Itoa(r.RecommendedQty),
		money(r.UnitCost),
		money(r.TotalCost),
		money(r.Profit),
		strconv.FormatFloat(r.MarginPct, 'f', 1, 64),
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ProjectionTableName is the write-back target; its contents are replaced
// wholesale on every run.
const ProjectionTableName = "proyeccion_final"

// projectionHeader uses machine-friendly names for the write-back table.
var projectionHeader = []string{
	"sku",
	"producto",
	"ventas_ultimo_ano",
	"tasa_crecimiento",
	"demanda_proyectada",
	"variabilidad",
	"stock_seguridad",
	"cantidad_recomendada",
	"costo_unitario",
	"costo_total",
	"utilidad",
	"margen_pct",
	"costo_faltante",
}

// ProjectionTable builds the final projection table for the Sink.
func ProjectionTable(rows []domain.RecommendationRow) *tabular.Table {
	t := &tabular.Table{
		Name:   ProjectionTableName,
		Header: append([]string(nil), projectionHeader...),
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.SKU,
			r.ProductName,
			raw(r.LatestRevenue),
			raw(r.GrowthRate),
			strconv.Itoa(r.ProjectedDemand),
			raw(r.Variability),
			strconv.Itoa(r.SafetyStock),
			strconv.Itoa(r.RecommendedQty),
			raw(r.UnitCost),
			raw(r.TotalCost),
			raw(r.Profit),
			raw(r.MarginPct),
			strconv.FormatBool(r.MissingCost),
		})
	}
	return t
}

func raw(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
