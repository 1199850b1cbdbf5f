package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dnovoa/purchase-planner/internal/api/handlers"
	"github.com/dnovoa/purchase-planner/internal/api/middleware"
	"github.com/dnovoa/purchase-planner/internal/service"
)

// NewRouter builds the gin engine with all planner routes mounted under
// /api/v1.
func NewRouter(plannerService *service.PlannerService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if normalized, allowAll := normalizeAllowedOrigins(allowedOrigins); allowAll {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	} else if len(normalized) > 0 {
		corsConfig.AllowOrigins = normalized
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	plannerHandler := handlers.NewPlannerHandler(plannerService)
	plannerGroup := apiGroup.Group("/planner")
	{
		plannerGroup.POST("/run", plannerHandler.Run)
		plannerGroup.GET("/recommendations", plannerHandler.GetRecommendations)
		plannerGroup.GET("/series", plannerHandler.GetSeries)
		plannerGroup.GET("/export.csv", plannerHandler.ExportCSV)
		plannerGroup.GET("/export.xlsx", plannerHandler.ExportWorkbook)
		plannerGroup.POST("/writeback", plannerHandler.WriteBack)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var normalized []string
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			return nil, true
		}
		normalized = append(normalized, strings.TrimSuffix(origin, "/"))
	}
	return normalized, false
}
