package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/internal/pipeline"
	"github.com/dnovoa/purchase-planner/internal/service"
)

type PlannerHandler struct {
	service *service.PlannerService
}

func NewPlannerHandler(service *service.PlannerService) *PlannerHandler {
	return &PlannerHandler{service: service}
}

// Run triggers a full pipeline pass and returns the run summary with the
// unfiltered recommendation rows.
func (h *PlannerHandler) Run(c *gin.Context) {
	result, err := h.service.Run(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRecommendations returns the filtered recommendation rows.
func (h *PlannerHandler) GetRecommendations(c *gin.Context) {
	params := h.parseFilter(c)
	rows, err := h.service.Recommendations(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filters": params,
		"count":   len(rows),
		"rows":    rows,
	})
}

// GetSeries returns the monthly revenue series grouped by the requested level.
func (h *PlannerHandler) GetSeries(c *gin.Context) {
	params := h.parseFilter(c)
	series, err := h.service.Series(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"group_by": params.GroupBy,
		"series":   series,
	})
}

// ExportCSV streams the filtered recommendation set as a CSV download.
func (h *PlannerHandler) ExportCSV(c *gin.Context) {
	name, data, err := h.service.ExportCSV(c.Request.Context(), h.parseFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ExportWorkbook streams the filtered recommendation set as an xlsx download.
func (h *PlannerHandler) ExportWorkbook(c *gin.Context) {
	name, data, err := h.service.ExportWorkbook(c.Request.Context(), h.parseFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// WriteBack replaces the projection table in the external store.
func (h *PlannerHandler) WriteBack(c *gin.Context) {
	if err := h.service.WriteBack(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *PlannerHandler) parseFilter(c *gin.Context) domain.FilterParams {
	params := domain.FilterParams{GroupBy: domain.GroupBySKU}

	if v, err := strconv.ParseFloat(c.DefaultQuery("min_margin_pct", "0"), 64); err == nil {
		params.MinMarginPct = v
	}
	if v, err := strconv.ParseFloat(c.DefaultQuery("min_profit", "0"), 64); err == nil {
		params.MinProfit = v
	}
	if v, err := strconv.ParseFloat(c.DefaultQuery("min_revenue", "0"), 64); err == nil {
		params.MinRevenue = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("top_n", "0")); err == nil && v > 0 {
		params.TopN = v
	}
	if group := strings.TrimSpace(c.Query("group_by")); group != "" {
		params.GroupBy = domain.ParseGroupLevel(group)
	}
	return params
}

// fail maps engine errors to responses: precondition failures from the data
// source are the caller's problem, anything else is ours.
func (h *PlannerHandler) fail(c *gin.Context, err error) {
	var missingCols *pipeline.MissingColumnsError
	switch {
	case errors.Is(err, pipeline.ErrNoSalesTables),
		errors.Is(err, pipeline.ErrNoUsablePeriod),
		errors.As(err, &missingCols):
		log.Error().Err(err).Msg("pipeline precondition failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("pipeline run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
