package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dnovoa/purchase-planner/internal/api"
	"github.com/dnovoa/purchase-planner/internal/cache"
	"github.com/dnovoa/purchase-planner/internal/config"
	"github.com/dnovoa/purchase-planner/internal/costs"
	"github.com/dnovoa/purchase-planner/internal/pipeline"
	"github.com/dnovoa/purchase-planner/internal/service"
	"github.com/dnovoa/purchase-planner/internal/storage"
	"github.com/dnovoa/purchase-planner/internal/tabular/sheets"
	"github.com/dnovoa/purchase-planner/pkg/logger"
)

func main() {
	cfg := config.Load()

	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel("info")
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	sheetsClient, err := sheets.NewClient(ctx, []byte(cfg.Sheets.CredentialsJSON), cfg.Sheets.SpreadsheetID)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize sheets client")
	}

	costSource, err := buildCostSource(ctx, cfg, sheetsClient)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize cost source")
	}

	planner := pipeline.NewPlanner(sheetsClient, costSource, plannerConfig(cfg))

	runCache, err := cache.NewRecommendationCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize recommendation cache")
	}

	var archive storage.ExportArchive
	if cfg.Archive.Enabled {
		client, err := storage.NewArchiveClient(storage.ArchiveConfig{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			UseSSL:    cfg.Archive.UseSSL,
			Prefix:    cfg.Archive.Prefix,
		})
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize export archive")
		}
		archive = client
	}

	plannerService := service.NewPlannerService(planner, sheetsClient, runCache, archive, cfg.Sheets.ProjectionTable)

	router := api.NewRouter(plannerService, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func plannerConfig(cfg *config.Config) pipeline.Config {
	pc := pipeline.Config{
		TablePrefix: cfg.Sheets.TablePrefix,
		Columns: pipeline.ColumnMapping{
			SKU:         cfg.Planner.ColumnSKU,
			ProductName: cfg.Planner.ColumnProductName,
			Date:        cfg.Planner.ColumnDate,
			Quantity:    cfg.Planner.ColumnQuantity,
			UnitPrice:   cfg.Planner.ColumnUnitPrice,
			ProductType: cfg.Planner.ColumnProductType,
			Variant:     cfg.Planner.ColumnVariant,
		},
		Forecast: pipeline.ForecastConfig{
			ZValue: cfg.Planner.ZValue,
			Basis:  pipeline.ParseVariabilityBasis(cfg.Planner.VariabilityBasis),
		},
	}
	if cfg.Planner.FallbackCostSet {
		fallback := cfg.Planner.FallbackUnitCost
		pc.Profitability.FallbackUnitCost = &fallback
	}
	return pc
}

func buildCostSource(ctx context.Context, cfg *config.Config, sheetsClient *sheets.Client) (pipeline.CostSource, error) {
	switch cfg.Costs.Source {
	case "postgres":
		return costs.NewPostgresCosts(costs.PostgresConfig{
			Host:     cfg.Costs.DBHost,
			Port:     cfg.Costs.DBPort,
			User:     cfg.Costs.DBUser,
			Password: cfg.Costs.DBPassword,
			DBName:   cfg.Costs.DBName,
			SSLMode:  cfg.Costs.DBSSLMode,
			Table:    cfg.Costs.DBTable,
		})
	case "table":
		return costs.LoadTableCosts(ctx, sheetsClient, cfg.Costs.Table, cfg.Costs.SKUColumn, cfg.Costs.CostColumn)
	case "none":
		return costs.StaticCosts{}, nil
	default:
		return nil, fmt.Errorf("unknown cost source %q", cfg.Costs.Source)
	}
}
