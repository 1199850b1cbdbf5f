package tabular

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a map-backed Source and Sink. It backs tests and the CLI's
// --from-csv-dir mode, where local CSV files stand in for worksheets.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewMemoryStore creates an empty in-memory table store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*Table)}
}

// AddTable inserts or replaces a table.
func (m *MemoryStore) AddTable(t *Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.Name] = t
}

// ListTables returns table names in sorted order so runs are deterministic.
func (m *MemoryStore) ListTables(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ReadTable returns a copy of the named table.
func (m *MemoryStore) ReadTable(ctx context.Context, name string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q not found", name)
	}

	out := &Table{
		Name:   t.Name,
		Header: append([]string(nil), t.Header...),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out, nil
}

// ReplaceTable implements Sink with replace semantics.
func (m *MemoryStore) ReplaceTable(ctx context.Context, t *Table) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("cannot replace unnamed table")
	}
	m.AddTable(t)
	return nil
}
