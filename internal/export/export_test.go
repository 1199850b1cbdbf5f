package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dnovoa/purchase-planner/internal/domain"
)

func sampleRows() []domain.RecommendationRow {
	return []domain.RecommendationRow{
		{
			SKU:             "SKU001",
			ProductName:     "Crema Facial",
			LatestRevenue:   1200,
			LatestQuantity:  12,
			GrowthRate:      0.2,
			ProjectedDemand: 1440,
			Variability:     141.4213562,
			SafetyStock:     233,
			RecommendedQty:  1673,
			UnitCost:        40,
			TotalCost:       480,
			Profit:          720,
			MarginPct:       60,
		},
		{
			SKU:            "SKU002",
			ProductName:    "Jabón Neutro",
			LatestRevenue:  400,
			LatestQuantity: 16,
			RecommendedQty: 10,
			UnitCost:       10,
			TotalCost:      160,
			Profit:         240,
			MarginPct:      60,
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	data, err := CSV(sampleRows())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, DisplayHeader, records[0])

	first := records[1]
	assert.Equal(t, "SKU001", first[0])
	assert.Equal(t, "Crema Facial", first[1])
	assert.Equal(t, "1200.00", first[2])
	assert.Equal(t, "20.00", first[3])
	assert.Equal(t, "1440", first[4])
	assert.Equal(t, "233", first[6])
	assert.Equal(t, "1673", first[7])
	assert.Equal(t, "60.0", first[11])
}

func TestCSVEmptyRowsStillHasHeader(t *testing.T) {
	data, err := CSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, DisplayHeader, records[0])
}

func TestProjectionTable(t *testing.T) {
	table := ProjectionTable(sampleRows())

	assert.Equal(t, ProjectionTableName, table.Name)
	assert.Equal(t, "costo_faltante", table.Header[len(table.Header)-1])
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	require.Len(t, first, len(table.Header))
	assert.Equal(t, "SKU001", first[0])
	assert.Equal(t, "0.2", first[3])
	assert.Equal(t, "1440", first[4])
	assert.Equal(t, "false", first[len(first)-1])
}

func TestWorkbookMainSheetOnly(t *testing.T) {
	data, err := Workbook(sampleRows(), WorkbookOptions{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetOrder}, f.GetSheetList())

	rows, err := f.GetRows(SheetOrder)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, DisplayHeader, rows[0])
	assert.Equal(t, "SKU001", rows[1][0])
	assert.Equal(t, "SKU002", rows[2][0])
}

func TestWorkbookAlertSheetListsExcessOnly(t *testing.T) {
	data, err := Workbook(sampleRows(), WorkbookOptions{IncludeAlerts: true})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), SheetAlerts)

	rows, err := f.GetRows(SheetAlerts)
	require.NoError(t, err)
	// SKU001 recommends 1673 against 12 sold; SKU002 recommends less than it
	// sold and stays off the sheet.
	require.Len(t, rows, 2)
	assert.Equal(t, "SKU001", rows[1][0])
}

func TestWorkbookKPISheet(t *testing.T) {
	data, err := Workbook(sampleRows(), WorkbookOptions{IncludeKPI: true})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetKPI)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Indicador", rows[0][0])
	assert.Equal(t, "Productos", rows[1][0])
	assert.Equal(t, "2", rows[1][1])

	var topHeaderLine int
	for i, r := range rows {
		if len(r) > 0 && r[0] == "Top 5 por Utilidad" {
			topHeaderLine = i
		}
	}
	require.NotZero(t, topHeaderLine)
	// Ranked by profit: SKU001 first.
	assert.Equal(t, "SKU001", rows[topHeaderLine+1][0])
	assert.Equal(t, "SKU002", rows[topHeaderLine+2][0])
}
