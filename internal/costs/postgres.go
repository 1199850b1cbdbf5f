package costs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/semaphore"

	"github.com/dnovoa/purchase-planner/pkg/logger"
)

// PostgresConfig carries the connection settings for the cost database.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Table    string // defaults to product_costs
}

// PostgresCosts serves unit costs from a product_costs table. Lookups are
// synchronous; the semaphore bounds concurrent queries the same way the
// rest of the service bounds DB work.
type PostgresCosts struct {
	db    *sqlx.DB
	table string
	sem   *semaphore.Weighted
}

// NewPostgresCosts opens the connection pool and verifies it.
func NewPostgresCosts(cfg PostgresConfig) (*PostgresCosts, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cost database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	table := cfg.Table
	if table == "" {
		table = "product_costs"
	}

	return &PostgresCosts{
		db:    db,
		table: table,
		sem:   semaphore.NewWeighted(10),
	}, nil
}

// UnitCost implements pipeline.CostSource. A lookup failure is reported as
// a missing entry; the fallback policy upstream decides what that means.
func (p *PostgresCosts) UnitCost(sku string) (float64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := logger.With("costs")

	if err := p.sem.Acquire(ctx, 1); err != nil {
		log.Error().Err(err).Str("sku", sku).Msg("could not acquire cost query slot")
		return 0, false
	}
	defer p.sem.Release(1)

	var cost float64
	query := fmt.Sprintf("SELECT unit_cost FROM %s WHERE sku = $1", p.table)
	if err := p.db.GetContext(ctx, &cost, query, sku); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Str("sku", sku).Msg("cost lookup failed")
		}
		return 0, false
	}
	return cost, true
}

// Close releases the connection pool.
func (p *PostgresCosts) Close() error {
	return p.db.Close()
}
