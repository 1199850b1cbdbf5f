package domain

import "time"

// GroupLevel selects the attribute used when grouping the monthly sales series.
type GroupLevel string

const (
	GroupByType    GroupLevel = "type"
	GroupByProduct GroupLevel = "product"
	GroupBySKU     GroupLevel = "sku"
	GroupByVariant GroupLevel = "variant"
)

// ParseGroupLevel maps a user-supplied value to a GroupLevel, defaulting to SKU.
func ParseGroupLevel(s string) GroupLevel {
	switch GroupLevel(s) {
	case GroupByType, GroupByProduct, GroupBySKU, GroupByVariant:
		return GroupLevel(s)
	default:
		return GroupBySKU
	}
}

// SalesRecord is a single line item parsed from a source sales table.
// Period carries the year extracted from the table name; it is nil when the
// name's period token was not numeric.
type SalesRecord struct {
	SKU         string
	ProductName string
	ProductType string
	Variant     string
	Date        time.Time
	ValidDate   bool // false when the source date did not parse
	Quantity    float64
	UnitPrice   float64
	Period      *int
	SourceTable string
}

// Revenue is the line revenue for the record.
func (r SalesRecord) Revenue() float64 {
	return r.UnitPrice * r.Quantity
}

// ProductPeriodAggregate is one row per distinct (SKU, period) pair.
type ProductPeriodAggregate struct {
	SKU      string
	Period   int
	Revenue  float64
	Quantity float64
	Records  int
}

// ProductAggregate is the per-product rollup for a single period,
// carrying the display name seen in the source rows.
type ProductAggregate struct {
	SKU         string
	ProductName string
	Revenue     float64
	Quantity    float64
	Records     int
}

// ProductForecast holds the demand projection for one product.
type ProductForecast struct {
	SKU             string
	LatestRevenue   float64
	GrowthRate      float64
	ProjectedDemand int
	Variability     float64
	SafetyStock     int
	RecommendedQty  int
}

// ProductProfitability holds cost and margin figures for the latest period.
type ProductProfitability struct {
	SKU         string
	UnitCost    float64
	TotalCost   float64
	Revenue     float64
	Profit      float64
	MarginPct   float64
	MissingCost bool // unit cost fell back to the configured default
}

// RecommendationRow is the forecast/profitability join surfaced to filtering
// and export. Rows are immutable once the run that produced them completes.
type RecommendationRow struct {
	SKU             string  `json:"sku"`
	ProductName     string  `json:"product_name"`
	LatestRevenue   float64 `json:"latest_revenue"`
	LatestQuantity  float64 `json:"latest_quantity"`
	GrowthRate      float64 `json:"growth_rate"`
	ProjectedDemand int     `json:"projected_demand"`
	Variability     float64 `json:"variability"`
	SafetyStock     int     `json:"safety_stock"`
	RecommendedQty  int     `json:"recommended_qty"`
	UnitCost        float64 `json:"unit_cost"`
	TotalCost       float64 `json:"total_cost"`
	Profit          float64 `json:"profit"`
	MarginPct       float64 `json:"margin_pct"`
	MissingCost     bool    `json:"missing_cost"`
}

// FilterParams are the caller-supplied recommendation filters. Zero values
// mean "no restriction"; all threshold conditions are conjunctive.
type FilterParams struct {
	MinMarginPct float64    `json:"min_margin_pct"`
	MinProfit    float64    `json:"min_profit"`
	MinRevenue   float64    `json:"min_revenue"`
	GroupBy      GroupLevel `json:"group_by"`
	TopN         int        `json:"top_n"`
}

// SeriesPoint is one month of summed revenue for a series group.
type SeriesPoint struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
}

// GroupSeries is the monthly revenue series for one group key.
type GroupSeries struct {
	Key    string        `json:"key"`
	Points []SeriesPoint `json:"points"`
}

// RunResult is the output of one full pipeline run. Rows are ordered by
// descending profit (SKU as tiebreak) before any filter is applied.
type RunResult struct {
	GeneratedAt  time.Time           `json:"generated_at"`
	LatestPeriod int                 `json:"latest_period"`
	Periods      []int               `json:"periods"`
	SourceTables []string            `json:"source_tables"`
	TotalRecords int                 `json:"total_records"`
	SkippedRows  int                 `json:"skipped_rows"`
	Rows         []RecommendationRow `json:"rows"`
}
