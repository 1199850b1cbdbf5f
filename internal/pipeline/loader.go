package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/internal/tabular"
	"github.com/dnovoa/purchase-planner/pkg/logger"
)

// dateLayouts are tried in order when parsing the transaction date.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	time.RFC3339,
}

// Dataset is the unified, per-run sales dataset. It is rebuilt from scratch
// on every invocation; nothing here survives between runs.
type Dataset struct {
	Records     []domain.SalesRecord
	Tables      []string
	SkippedRows int // rows dropped for an empty product identifier
	InvalidDate int // rows kept but excluded from date-scoped aggregation
}

// Loader discovers period-tagged sales tables in a Source, normalizes their
// columns and concatenates them into one Dataset.
type Loader struct {
	src    tabular.Source
	prefix string
	cols   ColumnMapping
	log    zerolog.Logger
}

// NewLoader builds a Loader for the given source and column mapping.
func NewLoader(src tabular.Source, prefix string, cols ColumnMapping) *Loader {
	if prefix == "" {
		prefix = "ventas_"
	}
	return &Loader{
		src:    src,
		prefix: prefix,
		cols:   cols,
		log:    logger.With("loader"),
	}
}

// Load reads every table whose name starts with the configured prefix and
// concatenates the parsed records, preserving row order within a table and
// table order across tables. Zero matching tables and missing required
// columns are fatal; everything row-level degrades softly.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	names, err := l.src.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source tables: %w", err)
	}

	var matched []string
	for _, name := range names {
		if strings.HasPrefix(name, l.prefix) {
			matched = append(matched, name)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w (prefix %q)", ErrNoSalesTables, l.prefix)
	}

	ds := &Dataset{Tables: matched}
	for _, name := range matched {
		table, err := l.src.ReadTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", name, err)
		}
		if err := l.appendTable(ds, table); err != nil {
			return nil, err
		}
	}

	l.log.Info().
		Int("tables", len(matched)).
		Int("records", len(ds.Records)).
		Int("skipped_rows", ds.SkippedRows).
		Int("invalid_dates", ds.InvalidDate).
		Msg("sales tables consolidated")

	return ds, nil
}

func (l *Loader) appendTable(ds *Dataset, table *tabular.Table) error {
	period := l.parsePeriod(table.Name)

	idx, missing := l.columnIndex(table.Header)
	if len(missing) > 0 {
		return &MissingColumnsError{Table: table.Name, Columns: missing}
	}

	for _, row := range table.Rows {
		get := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		sku := get(idx.sku)
		if sku == "" {
			ds.SkippedRows++
			continue
		}

		rec := domain.SalesRecord{
			SKU:         sku,
			ProductName: get(idx.name),
			ProductType: get(idx.typ),
			Variant:     get(idx.variant),
			Quantity:    parseFloatSoft(get(idx.quantity)),
			UnitPrice:   parseFloatSoft(get(idx.price)),
			Period:      period,
			SourceTable: table.Name,
		}

		if dt, ok := parseDate(get(idx.date)); ok {
			rec.Date = dt
			rec.ValidDate = true
		} else {
			ds.InvalidDate++
		}

		ds.Records = append(ds.Records, rec)
	}
	return nil
}

// parsePeriod extracts the year token from a table name. A non-numeric token
// degrades to a null period instead of rejecting the table.
func (l *Loader) parsePeriod(tableName string) *int {
	token := strings.TrimPrefix(tableName, l.prefix)
	year, err := strconv.Atoi(token)
	if err != nil {
		l.log.Warn().Str("table", tableName).Str("token", token).
			Msg("period token is not numeric, tagging records with null period")
		return nil
	}
	return &year
}

type columnIdx struct {
	sku, name, date, quantity, price, typ, variant int
}

func (l *Loader) columnIndex(header []string) (columnIdx, []string) {
	find := func(want string) int {
		target := normalizeColumnName(want)
		for i, h := range header {
			if normalizeColumnName(h) == target {
				return i
			}
		}
		return -1
	}

	idx := columnIdx{
		sku:      find(l.cols.SKU),
		name:     find(l.cols.ProductName),
		date:     find(l.cols.Date),
		quantity: find(l.cols.Quantity),
		price:    find(l.cols.UnitPrice),
		typ:      -1,
		variant:  -1,
	}
	if l.cols.ProductType != "" {
		idx.typ = find(l.cols.ProductType)
	}
	if l.cols.Variant != "" {
		idx.variant = find(l.cols.Variant)
	}

	var missing []string
	for _, c := range []struct {
		name string
		pos  int
	}{
		{l.cols.SKU, idx.sku},
		{l.cols.ProductName, idx.name},
		{l.cols.Date, idx.date},
		{l.cols.Quantity, idx.quantity},
		{l.cols.UnitPrice, idx.price},
	} {
		if c.pos < 0 {
			missing = append(missing, c.name)
		}
	}
	return idx, missing
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}
