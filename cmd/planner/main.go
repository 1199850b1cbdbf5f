package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/dnovoa/purchase-planner/internal/config"
	"github.com/dnovoa/purchase-planner/internal/costs"
	"github.com/dnovoa/purchase-planner/internal/domain"
	"github.com/dnovoa/purchase-planner/internal/export"
	"github.com/dnovoa/purchase-planner/internal/pipeline"
	"github.com/dnovoa/purchase-planner/internal/tabular"
	"github.com/dnovoa/purchase-planner/internal/tabular/sheets"
	"github.com/dnovoa/purchase-planner/pkg/logger"
)

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "min-margin", Usage: "Minimum margin percentage", Value: 0},
		&cli.Float64Flag{Name: "min-profit", Usage: "Minimum annual profit", Value: 0},
		&cli.Float64Flag{Name: "min-revenue", Usage: "Minimum annual revenue", Value: 0},
		&cli.IntFlag{Name: "top-n", Usage: "Keep only the N most profitable products", Value: 0},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "from-csv-dir",
			Usage:   "Run against a directory of CSV tables instead of the configured spreadsheet",
			EnvVars: []string{"PLANNER_CSV_DIR"},
		},
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug().Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "planner",
		Usage: "Consolidate per-year sales tables and compute purchase recommendations",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the pipeline and print a per-product summary",
				Flags:  append(sourceFlags(), filterFlags()...),
				Action: runAction,
			},
			{
				Name:  "export",
				Usage: "Run the pipeline and write the order file",
				Flags: append(sourceFlags(), append(filterFlags(),
					&cli.StringFlag{Name: "format", Usage: "Output format: csv or xlsx", Value: "csv"},
					&cli.StringFlag{Name: "out", Usage: "Output file path", Required: true},
				)...),
				Action: exportAction,
			},
			{
				Name:   "writeback",
				Usage:  "Replace the projection table in the source spreadsheet",
				Flags:  sourceFlags(),
				Action: writebackAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("planner command failed")
	}
}

func runAction(c *cli.Context) error {
	planner, _, err := buildPlanner(c)
	if err != nil {
		return err
	}

	result, err := planner.Run(c.Context)
	if err != nil {
		return err
	}

	rows := pipeline.ApplyFilter(result.Rows, parseFilter(c))
	if n := c.Int("top-n"); n > 0 {
		rows = pipeline.TopByProfit(rows, n)
	}

	fmt.Printf("Latest period: %d (tables: %s)\n", result.LatestPeriod, strings.Join(result.SourceTables, ", "))
	fmt.Printf("Products: %d of %d pass the filters\n\n", len(rows), len(result.Rows))
	fmt.Printf("%-12s %-28s %14s %10s %10s %12s\n", "SKU", "Producto", "Ventas", "Proyec.", "St.Seg.", "Recomendado")
	for _, row := range rows {
		fmt.Printf("%-12s %-28s %14.2f %10d %10d %12d\n",
			row.SKU, truncate(row.ProductName, 28), row.LatestRevenue,
			row.ProjectedDemand, row.SafetyStock, row.RecommendedQty)
	}
	return nil
}

func exportAction(c *cli.Context) error {
	planner, _, err := buildPlanner(c)
	if err != nil {
		return err
	}

	result, err := planner.Run(c.Context)
	if err != nil {
		return err
	}

	rows := pipeline.ApplyFilter(result.Rows, parseFilter(c))
	if n := c.Int("top-n"); n > 0 {
		rows = pipeline.TopByProfit(rows, n)
	}

	var data []byte
	switch c.String("format") {
	case "csv":
		data, err = export.CSV(rows)
	case "xlsx":
		data, err = export.Workbook(rows, export.WorkbookOptions{IncludeAlerts: true, IncludeKPI: true})
	default:
		return fmt.Errorf("unknown export format %q", c.String("format"))
	}
	if err != nil {
		return err
	}

	out := c.String("out")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	logger.Log.Info().Str("path", out).Int("rows", len(rows)).Msg("order file written")
	return nil
}

func writebackAction(c *cli.Context) error {
	planner, sink, err := buildPlanner(c)
	if err != nil {
		return err
	}
	if sink == nil {
		return fmt.Errorf("write-back requires a spreadsheet source")
	}

	result, err := planner.Run(c.Context)
	if err != nil {
		return err
	}

	table := export.ProjectionTable(result.Rows)
	table.Name = config.Load().Sheets.ProjectionTable
	if err := sink.ReplaceTable(c.Context, table); err != nil {
		return fmt.Errorf("failed to replace projection table: %w", err)
	}
	logger.Log.Info().Str("table", table.Name).Int("rows", len(table.Rows)).Msg("projection table replaced")
	return nil
}

func parseFilter(c *cli.Context) domain.FilterParams {
	return domain.FilterParams{
		MinMarginPct: c.Float64("min-margin"),
		MinProfit:    c.Float64("min-profit"),
		MinRevenue:   c.Float64("min-revenue"),
	}
}

// buildPlanner assembles the engine against either the configured
// spreadsheet or a local CSV directory. The returned sink is nil in CSV mode.
func buildPlanner(c *cli.Context) (*pipeline.Planner, tabular.Sink, error) {
	cfg := config.Load()

	var src tabular.Source
	var sink tabular.Sink

	if dir := c.String("from-csv-dir"); dir != "" {
		store, err := loadCSVDir(dir)
		if err != nil {
			return nil, nil, err
		}
		src = store
	} else {
		client, err := sheets.NewClient(c.Context, []byte(cfg.Sheets.CredentialsJSON), cfg.Sheets.SpreadsheetID)
		if err != nil {
			return nil, nil, err
		}
		src = client
		sink = client
	}

	costSource, err := buildCostSource(c.Context, cfg, src)
	if err != nil {
		return nil, nil, err
	}

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

	return pipeline.NewPlanner(src, costSource, pc), sink, nil
}

func buildCostSource(ctx context.Context, cfg *config.Config, src tabular.Source) (pipeline.CostSource, error) {
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
		return costs.LoadTableCosts(ctx, src, cfg.Costs.Table, cfg.Costs.SKUColumn, cfg.Costs.CostColumn)
	case "none":
		return costs.StaticCosts{}, nil
	default:
		return nil, fmt.Errorf("unknown cost source %q", cfg.Costs.Source)
	}
}

// loadCSVDir reads every .csv file in dir into an in-memory table store,
// using the bare filename as the table name.
func loadCSVDir(dir string) (*tabular.MemoryStore, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no CSV files found in %s", dir)
	}

	store := tabular.NewMemoryStore()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}

		reader := csv.NewReader(f)
		reader.TrimLeadingSpace = true
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(records) == 0 {
			continue
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		store.AddTable(&tabular.Table{
			Name:   name,
			Header: records[0],
			Rows:   records[1:],
		})
	}
	return store, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
