package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dnovoa/purchase-planner/internal/cache"
	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/internal/export"
	"github.com/dnovoa/purchase-planner/internal/pipeline"
	"github.com/dnovoa/purchase-planner/internal/storage"
	"github.com/dnovoa/purchase-planner/internal/tabular"
	"github.com/dnovoa/purchase-planner/pkg/logger"
)

// PlannerService ties the engine to its collaborators: the write-back sink,
// the recommendation cache and the optional export archive.
type PlannerService struct {
	planner         *pipeline.Planner
	sink            tabular.Sink          // nil when no write-back target is configured
	archive         storage.ExportArchive // nil when archiving is disabled
	cache           cache.RecommendationCache
	projectionTable string
	log             zerolog.Logger
}

// NewPlannerService wires the service. sink and archive may be nil.
func NewPlannerService(planner *pipeline.Planner, sink tabular.Sink, runCache cache.RecommendationCache, archive storage.ExportArchive, projectionTable string) *PlannerService {
	if runCache == nil {
		runCache = cache.NewNoopRecommendationCache()
	}
	if projectionTable == "" {
		projectionTable = export.ProjectionTableName
	}
	return &PlannerService{
		planner:         planner,
		sink:            sink,
		archive:         archive,
		cache:           runCache,
		projectionTable: projectionTable,
		log:             logger.With("planner_service"),
	}
}

// Run executes one full pipeline pass, bypassing the cache.
func (s *PlannerService) Run(ctx context.Context) (*domain.RunResult, error) {
	return s.planner.Run(ctx)
}

// Recommendations returns the filtered (and optionally top-N) rows for the
// given parameters, serving from cache when possible.
func (s *PlannerService) Recommendations(ctx context.Context, params domain.FilterParams) ([]domain.RecommendationRow, error) {
	if rows, hit, err := s.cache.Get(ctx, params); err != nil {
		s.log.Warn().Err(err).Msg("recommendation cache read failed, recomputing")
	} else if hit {
		return rows, nil
	}

	rows, err := s.filteredRows(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, params, rows); err != nil {
		s.log.Warn().Err(err).Msg("recommendation cache write failed")
	}
	return rows, nil
}

// Series returns the monthly revenue series grouped per params.GroupBy.
func (s *PlannerService) Series(ctx context.Context, params domain.FilterParams) ([]domain.GroupSeries, error) {
	return s.planner.Series(ctx, params)
}

// ExportCSV renders the filtered rows as delimited text and archives the
// bytes when an archive is configured.
func (s *PlannerService) ExportCSV(ctx context.Context, params domain.FilterParams) (string, []byte, error) {
	rows, err := s.Recommendations(ctx, params)
	if err != nil {
		return "", nil, err
	}

	data, err := export.CSV(rows)
	if err != nil {
		return "", nil, err
	}

	name := exportName("csv")
	s.archiveExport(ctx, name, data)
	return name, data, nil
}

// ExportWorkbook renders the filtered rows as an xlsx workbook with the
// supplementary sheets enabled.
func (s *PlannerService) ExportWorkbook(ctx context.Context, params domain.FilterParams) (string, []byte, error) {
	rows, err := s.Recommendations(ctx, params)
	if err != nil {
		return "", nil, err
	}

	data, err := export.Workbook(rows, export.WorkbookOptions{IncludeAlerts: true, IncludeKPI: true})
	if err != nil {
		return "", nil, err
	}

	name := exportName("xlsx")
	s.archiveExport(ctx, name, data)
	return name, data, nil
}

// WriteBack replaces the projection table in the external store with the
// full forecast/profitability join from a fresh run. Cached recommendation
// sets are invalidated afterwards.
func (s *PlannerService) WriteBack(ctx context.Context) error {
	if s.sink == nil {
		return fmt.Errorf("no output sink configured for write-back")
	}

	result, err := s.planner.Run(ctx)
	if err != nil {
		return err
	}

	table := export.ProjectionTable(result.Rows)
	table.Name = s.projectionTable
	if err := s.sink.ReplaceTable(ctx, table); err != nil {
		return fmt.Errorf("failed to replace projection table %s: %w", table.Name, err)
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("cache invalidation after write-back failed")
	}

	s.log.Info().Str("table", table.Name).Int("rows", len(table.Rows)).Msg("projection table replaced")
	return nil
}

func (s *PlannerService) filteredRows(ctx context.Context, params domain.FilterParams) ([]domain.RecommendationRow, error) {
	result, err := s.planner.Run(ctx)
	if err != nil {
		return nil, err
	}

	rows := pipeline.ApplyFilter(result.Rows, params)
	if params.TopN > 0 {
		rows = pipeline.TopByProfit(rows, params.TopN)
	}
	return rows, nil
}

func (s *PlannerService) archiveExport(ctx context.Context, name string, data []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.ArchiveExport(ctx, name, data); err != nil {
		// Archiving is best effort; the download still goes out.
		s.log.Warn().Err(err).Str("name", name).Msg("failed to archive export")
	}
}

func exportName(ext string) string {
	return fmt.Sprintf("orden_compra_%s.%s", time.Now().Format("20060102_150405"), ext)
}
