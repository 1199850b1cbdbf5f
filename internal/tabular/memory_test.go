package tabular

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreListTablesSorted(t *testing.T) {
	store := NewMemoryStore()
	store.AddTable(&Table{Name: "ventas_2024"})
	store.AddTable(&Table{Name: "clientes"})
	store.AddTable(&Table{Name: "ventas_2023"})

	names, err := store.ListTables(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"clientes", "ventas_2023", "ventas_2024"}, names)
}

func TestMemoryStoreReadTableReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.AddTable(&Table{
		Name:   "ventas_2024",
		Header: []string{"SKU", "Cantidad"},
		Rows:   [][]string{{"SKU001", "5"}},
	})

	got, err := store.ReadTable(context.Background(), "ventas_2024")
	require.NoError(t, err)

	got.Rows[0][0] = "mutated"
	got.Header[0] = "mutated"

	again, err := store.ReadTable(context.Background(), "ventas_2024")
	require.NoError(t, err)
	assert.Equal(t, "SKU001", again.Rows[0][0])
	assert.Equal(t, "SKU", again.Header[0])
}

func TestMemoryStoreReadTableNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.ReadTable(context.Background(), "missing")

	assert.Error(t, err)
}

func TestMemoryStoreReplaceTable(t *testing.T) {
	store := NewMemoryStore()
	store.AddTable(&Table{Name: "proyeccion_final", Rows: [][]string{{"old"}}})

	err := store.ReplaceTable(context.Background(), &Table{
		Name: "proyeccion_final",
		Rows: [][]string{{"new"}},
	})
	require.NoError(t, err)

	got, err := store.ReadTable(context.Background(), "proyeccion_final")
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "new", got.Rows[0][0])
}

func TestMemoryStoreReplaceTableRejectsUnnamed(t *testing.T) {
	store := NewMemoryStore()

	assert.Error(t, store.ReplaceTable(context.Background(), nil))
	assert.Error(t, store.ReplaceTable(context.Background(), &Table{}))
}
