package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnovoa/purchase-planner/internal/costs"
	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/internal/pipeline"
	"github.com/dnovoa/purchase-planner/internal/tabular"
)

var serviceHeader = []string{"SKU", "Producto/Servicio", "Tipo", "Variante", "Fecha", "Cantidad", "Precio Unitario"}

func serviceStore() *tabular.MemoryStore {
	store := tabular.NewMemoryStore()
	store.AddTable(&tabular.Table{
		Name:   "ventas_2023",
		Header: serviceHeader,
		Rows: [][]string{
			{"SKU001", "Crema Facial", "Cosmética", "50ml", "2023-03-10", "10", "100"},
			{"SKU002", "Jabón Neutro", "Higiene", "", "2023-05-01", "20", "25"},
		},
	})
	store.AddTable(&tabular.Table{
		Name:   "ventas_2024",
		Header: serviceHeader,
		Rows: [][]string{
			{"SKU001", "Crema Facial", "Cosmética", "50ml", "2024-04-02", "12", "100"},
			{"SKU002", "Jabón Neutro", "Higiene", "", "2024-06-30", "16", "25"},
		},
	})
	return store
}

func newTestService(store *tabular.MemoryStore) *PlannerService {
	planner := pipeline.NewPlanner(store, costs.StaticCosts{"SKU001": 40, "SKU002": 10}, pipeline.DefaultConfig())
	return NewPlannerService(planner, store, nil, nil, "")
}

// memoryCache records Get/Set/InvalidateAll traffic for assertions.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]domain.RecommendationRow
	gets, sets  int
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]domain.RecommendationRow)}
}

func (c *memoryCache) key(params domain.FilterParams) string {
	return fmt.Sprintf("%v", params)
}

func (c *memoryCache) Get(ctx context.Context, params domain.FilterParams) ([]domain.RecommendationRow, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	rows, ok := c.entries[c.key(params)]
	return rows, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, params domain.FilterParams, rows []domain.RecommendationRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[c.key(params)] = rows
	return nil
}

func (c *memoryCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.entries = make(map[string][]domain.RecommendationRow)
	return nil
}

func TestRecommendationsAppliesFilterAndTopN(t *testing.T) {
	svc := newTestService(serviceStore())

	rows, err := svc.Recommendations(context.Background(), domain.FilterParams{TopN: 1})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SKU001", rows[0].SKU)
}

func TestRecommendationsServesFromCache(t *testing.T) {
	cache := newMemoryCache()
	store := serviceStore()
	planner := pipeline.NewPlanner(store, costs.StaticCosts{"SKU001": 40, "SKU002": 10}, pipeline.DefaultConfig())
	svc := NewPlannerService(planner, store, cache, nil, "")

	first, err := svc.Recommendations(context.Background(), domain.FilterParams{})
	require.NoError(t, err)
	second, err := svc.Recommendations(context.Background(), domain.FilterParams{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestExportCSVNamesFile(t *testing.T) {
	svc := newTestService(serviceStore())

	name, data, err := svc.ExportCSV(context.Background(), domain.FilterParams{})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "orden_compra_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
	assert.NotEmpty(t, data)
}

func TestExportWorkbookProducesXlsx(t *testing.T) {
	svc := newTestService(serviceStore())

	name, data, err := svc.ExportWorkbook(context.Background(), domain.FilterParams{})

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
	// xlsx files are zip archives.
	require.Greater(t, len(data), 4)
	assert.Equal(t, "PK", string(data[:2]))
}

func TestWriteBackReplacesProjectionTable(t *testing.T) {
	cache := newMemoryCache()
	store := serviceStore()
	planner := pipeline.NewPlanner(store, costs.StaticCosts{"SKU001": 40, "SKU002": 10}, pipeline.DefaultConfig())
	svc := NewPlannerService(planner, store, cache, nil, "proyeccion_final")

	require.NoError(t, svc.WriteBack(context.Background()))

	table, err := store.ReadTable(context.Background(), "proyeccion_final")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "sku", table.Header[0])
	assert.Equal(t, 1, cache.invalidated)
}

func TestWriteBackWithoutSink(t *testing.T) {
	planner := pipeline.NewPlanner(serviceStore(), costs.StaticCosts{}, pipeline.DefaultConfig())
	svc := NewPlannerService(planner, nil, nil, nil, "")

	err := svc.WriteBack(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink")
}
