// Package tabular defines the boundary to the external tabular store: a
// collection of named tables read as rows of named columns. The engine only
// depends on these interfaces; Google Sheets is one implementation.
package tabular

import "context"

// Table is a named table with a header row and string-valued cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Source reads named tables from the external store.
type Source interface {
	// ListTables returns the names of all tables in the store.
	ListTables(ctx context.Context) ([]string, error)

	// ReadTable reads a single table, header row included in Table.Header.
	ReadTable(ctx context.Context, name string) (*Table, error)
}

// Sink writes a table back to the external store, replacing any previous
// contents wholesale. Appending is never used.
type Sink interface {
	ReplaceTable(ctx context.Context, t *Table) error
}
