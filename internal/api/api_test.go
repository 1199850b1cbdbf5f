package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnovoa/purchase-planner/internal/costs"
	"github.com/dnovoa/purchase-planner/internal/pipeline"
	"github.com/dnovoa/purchase-planner/internal/service"
	"github.com/dnovoa/purchase-planner/internal/tabular"
)

var salesHeader = []string{"SKU", "Producto/Servicio", "Tipo", "Variante", "Fecha", "Cantidad", "Precio Unitario"}

func testRouter(t *testing.T, store *tabular.MemoryStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	planner := pipeline.NewPlanner(store, costs.StaticCosts{"SKU001": 40, "SKU002": 10}, pipeline.DefaultConfig())
	svc := service.NewPlannerService(planner, store, nil, nil, "")
	return NewRouter(svc, nil)
}

func populatedStore() *tabular.MemoryStore {
	store := tabular.NewMemoryStore()
	store.AddTable(&tabular.Table{
		Name:   "ventas_2023",
		Header: salesHeader,
		Rows: [][]string{
			{"SKU001", "Crema Facial", "Cosmética", "50ml", "2023-03-10", "10", "100"},
			{"SKU002", "Jabón Neutro", "Higiene", "", "2023-05-01", "20", "25"},
		},
	})
	store.AddTable(&tabular.Table{
		Name:   "ventas_2024",
		Header: salesHeader,
		Rows: [][]string{
			{"SKU001", "Crema Facial", "Cosmética", "50ml", "2024-04-02", "12", "100"},
			{"SKU002", "Jabón Neutro", "Higiene", "", "2024-06-30", "16", "25"},
		},
	})
	return store
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t, populatedStore())

	w := doRequest(router, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRunEndpoint(t *testing.T) {
	router := testRouter(t, populatedStore())

	w := doRequest(router, http.MethodPost, "/api/v1/planner/run")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		LatestPeriod int `json:"latest_period"`
		TotalRecords int `json:"total_records"`
		Rows         []struct {
			SKU string `json:"sku"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2024, body.LatestPeriod)
	assert.Equal(t, 4, body.TotalRecords)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "SKU001", body.Rows[0].SKU)
}

func TestRecommendationsEndpointFilters(t *testing.T) {
	router := testRouter(t, populatedStore())

	w := doRequest(router, http.MethodGet, "/api/v1/planner/recommendations?min_profit=500&top_n=5")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count int `json:"count"`
		Rows  []struct {
			SKU string `json:"sku"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "SKU001", body.Rows[0].SKU)
}

func TestSeriesEndpointGroupBy(t *testing.T) {
	router := testRouter(t, populatedStore())

	w := doRequest(router, http.MethodGet, "/api/v1/planner/series?group_by=type")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GroupBy string `json:"group_by"`
		Series  []struct {
			Key string `json:"key"`
		} `json:"series"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "type", body.GroupBy)
	require.Len(t, body.Series, 2)
	assert.Equal(t, "Cosmética", body.Series[0].Key)
}

func TestExportCSVEndpoint(t *testing.T) {
	router := testRouter(t, populatedStore())

	w := doRequest(router, http.MethodGet, "/api/v1/planner/export.csv")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "orden_compra_")
	assert.True(t, strings.HasPrefix(w.Body.String(), "SKU,Producto"))
}

func TestExportWorkbookEndpoint(t *testing.T) {
	router := testRouter(t, populatedStore())

	w := doRequest(router, http.MethodGet, "/api/v1/planner/export.xlsx")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "PK", w.Body.String()[:2])
}

func TestWriteBackEndpoint(t *testing.T) {
	store := populatedStore()
	router := testRouter(t, store)

	w := doRequest(router, http.MethodPost, "/api/v1/planner/writeback")

	require.Equal(t, http.StatusOK, w.Code)

	names, err := store.ListTables(context.Background())
	require.NoError(t, err)
	assert.Contains(t, names, "proyeccion_final")
}

func TestRunEndpointNoSalesTables(t *testing.T) {
	store := tabular.NewMemoryStore()
	store.AddTable(&tabular.Table{Name: "clientes", Header: []string{"id"}})
	router := testRouter(t, store)

	w := doRequest(router, http.MethodPost, "/api/v1/planner/run")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}
