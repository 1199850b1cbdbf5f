package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal load conditions. Anything else that goes wrong during parsing is
// absorbed per row and never resurfaces later in the run.
var (
	// ErrNoSalesTables means no source table matched the configured prefix.
	ErrNoSalesTables = errors.New("no sales tables matched the configured prefix")

	// ErrNoUsablePeriod means every surviving record carries a null period,
	// so there is no latest period to project from.
	ErrNoUsablePeriod = errors.New("no sales records carry a usable period")
)

// MissingColumnsError reports required columns absent from a table's header.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("table %s is missing required columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// ColumnMapping maps logical fields to the column names used by the source
// tables. Changing source schemas is a configuration concern, not a code one.
type ColumnMapping struct {
	SKU         string
	ProductName string
	Date        string
	Quantity    string
	UnitPrice   string
	ProductType string // optional
	Variant     string // optional
}

// DefaultColumnMapping matches the column names of the original sales sheets.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		SKU:         "SKU",
		ProductName: "Producto/Servicio",
		Date:        "Fecha",
		Quantity:    "Cantidad",
		UnitPrice:   "Precio Unitario",
		ProductType: "Tipo",
		Variant:     "Variante",
	}
}

// VariabilityBasis selects the series the safety-stock standard deviation is
// computed over.
type VariabilityBasis string

const (
	// BasisPeriods computes variability over per-period revenue sums. This is
	// the default: the restocking cadence is the relevant horizon.
	BasisPeriods VariabilityBasis = "periods"

	// BasisRecords computes variability over per-record line revenue across
	// the product's entire history.
	BasisRecords VariabilityBasis = "records"
)

// ParseVariabilityBasis maps a config value to a basis, defaulting to periods.
func ParseVariabilityBasis(s string) VariabilityBasis {
	if VariabilityBasis(strings.ToLower(strings.TrimSpace(s))) == BasisRecords {
		return BasisRecords
	}
	return BasisPeriods
}

// ForecastConfig holds the service-level multiplier and variability basis.
type ForecastConfig struct {
	// ZValue is the standard-normal service-level multiplier. 1.65 is the
	// ~95% one-sided service level.
	ZValue float64

	Basis VariabilityBasis
}

// DefaultForecastConfig returns the 95% service-level defaults.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{ZValue: 1.65, Basis: BasisPeriods}
}

// ProfitabilityConfig controls the unit-cost fallback policy. A nil
// FallbackUnitCost means products without a cost entry are excluded from the
// profitability table instead of being priced at a default.
type ProfitabilityConfig struct {
	FallbackUnitCost *float64
}

// Config is the full engine configuration for one Planner.
type Config struct {
	TablePrefix   string
	Columns       ColumnMapping
	Forecast      ForecastConfig
	Profitability ProfitabilityConfig
}

// DefaultConfig mirrors the original sheet layout and service level.
func DefaultConfig() Config {
	return Config{
		TablePrefix: "ventas_",
		Columns:     DefaultColumnMapping(),
		Forecast:    DefaultForecastConfig(),
	}
}

// CostSource resolves a product's unit cost. The second return is false when
// the product has no cost entry.
type CostSource interface {
	UnitCost(sku string) (float64, bool)
}
