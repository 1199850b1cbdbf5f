package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Sheets  SheetsConfig
	Planner PlannerConfig
	Costs   CostsConfig
	Cache   CacheConfig
	Archive ArchiveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// SheetsConfig addresses the spreadsheet acting as the tabular store.
type SheetsConfig struct {
	CredentialsJSON string
	SpreadsheetID   string
	TablePrefix     string
	ProjectionTable string
}

// PlannerConfig carries the engine parameters: service level, variability
// basis and the source column names.
type PlannerConfig struct {
	ZValue           float64
	VariabilityBasis string
	FallbackUnitCost float64
	// FallbackCostSet distinguishes "fallback is 0" from "no fallback
	// configured"; without it products missing a cost entry are excluded.
	FallbackCostSet bool

	ColumnSKU         string
	ColumnProductName string
	ColumnDate        string
	ColumnQuantity    string
	ColumnUnitPrice   string
	ColumnProductType string
	ColumnVariant     string
}

// CostsConfig selects the unit-cost reference backend.
type CostsConfig struct {
	// Source is one of: table (a worksheet in the spreadsheet), postgres,
	// none.
	Source     string
	Table      string
	SKUColumn  string
	CostColumn string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTable    string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RunTTLSeconds int
}

// ArchiveConfig configures the optional S3-compatible archive for generated
// exports.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

		viper.SetDefault("SHEETS_CREDENTIALS_JSON", "")
		viper.SetDefault("SHEETS_SPREADSHEET_ID", "")
		viper.SetDefault("SHEETS_TABLE_PREFIX", "ventas_")
		viper.SetDefault("SHEETS_PROJECTION_TABLE", "proyeccion_final")

		viper.SetDefault("PLANNER_Z_VALUE", 1.65)
		viper.SetDefault("PLANNER_VARIABILITY_BASIS", "periods")
		viper.SetDefault("PLANNER_FALLBACK_UNIT_COST", -1.0)
		viper.SetDefault("PLANNER_COLUMN_SKU", "SKU")
		viper.SetDefault("PLANNER_COLUMN_PRODUCT_NAME", "Producto/Servicio")
		viper.SetDefault("PLANNER_COLUMN_DATE", "Fecha")
		viper.SetDefault("PLANNER_COLUMN_QUANTITY", "Cantidad")
		viper.SetDefault("PLANNER_COLUMN_UNIT_PRICE", "Precio Unitario")
		viper.SetDefault("PLANNER_COLUMN_PRODUCT_TYPE", "Tipo")
		viper.SetDefault("PLANNER_COLUMN_VARIANT", "Variante")

		viper.SetDefault("COSTS_SOURCE", "table")
		viper.SetDefault("COSTS_TABLE", "costos")
		viper.SetDefault("COSTS_SKU_COLUMN", "SKU")
		viper.SetDefault("COSTS_COST_COLUMN", "Costo Unitario")
		viper.SetDefault("COSTS_DB_HOST", "localhost")
		viper.SetDefault("COSTS_DB_PORT", "5432")
		viper.SetDefault("COSTS_DB_USER", "postgres")
		viper.SetDefault("COSTS_DB_PASSWORD", "postgres")
		viper.SetDefault("COSTS_DB_NAME", "planner")
		viper.SetDefault("COSTS_DB_SSLMODE", "disable")
		viper.SetDefault("COSTS_DB_TABLE", "product_costs")

		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RUN_TTL_SECONDS", 300)

		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "")
		viper.SetDefault("ARCHIVE_REGION", "")
		viper.SetDefault("ARCHIVE_USE_SSL", true)
		viper.SetDefault("ARCHIVE_PREFIX", "exports")

		// Read from environment variables
		viper.AutomaticEnv()

		fallback := viper.GetFloat64("PLANNER_FALLBACK_UNIT_COST")

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Sheets: SheetsConfig{
				CredentialsJSON: viper.GetString("SHEETS_CREDENTIALS_JSON"),
				SpreadsheetID:   viper.GetString("SHEETS_SPREADSHEET_ID"),
				TablePrefix:     viper.GetString("SHEETS_TABLE_PREFIX"),
				ProjectionTable: viper.GetString("SHEETS_PROJECTION_TABLE"),
			},
			Planner: PlannerConfig{
				ZValue:            viper.GetFloat64("PLANNER_Z_VALUE"),
				VariabilityBasis:  viper.GetString("PLANNER_VARIABILITY_BASIS"),
				FallbackUnitCost:  fallback,
				FallbackCostSet:   fallback >= 0,
				ColumnSKU:         viper.GetString("PLANNER_COLUMN_SKU"),
				ColumnProductName: viper.GetString("PLANNER_COLUMN_PRODUCT_NAME"),
				ColumnDate:        viper.GetString("PLANNER_COLUMN_DATE"),
				ColumnQuantity:    viper.GetString("PLANNER_COLUMN_QUANTITY"),
				ColumnUnitPrice:   viper.GetString("PLANNER_COLUMN_UNIT_PRICE"),
				ColumnProductType: viper.GetString("PLANNER_COLUMN_PRODUCT_TYPE"),
				ColumnVariant:     viper.GetString("PLANNER_COLUMN_VARIANT"),
			},
			Costs: CostsConfig{
				Source:     viper.GetString("COSTS_SOURCE"),
				Table:      viper.GetString("COSTS_TABLE"),
				SKUColumn:  viper.GetString("COSTS_SKU_COLUMN"),
				CostColumn: viper.GetString("COSTS_COST_COLUMN"),
				DBHost:     viper.GetString("COSTS_DB_HOST"),
				DBPort:     viper.GetString("COSTS_DB_PORT"),
				DBUser:     viper.GetString("COSTS_DB_USER"),
				DBPassword: viper.GetString("COSTS_DB_PASSWORD"),
				DBName:     viper.GetString("COSTS_DB_NAME"),
				DBSSLMode:  viper.GetString("COSTS_DB_SSLMODE"),
				DBTable:    viper.GetString("COSTS_DB_TABLE"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				RunTTLSeconds: viper.GetInt("CACHE_RUN_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				Region:    viper.GetString("ARCHIVE_REGION"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
				Prefix:    viper.GetString("ARCHIVE_PREFIX"),
			},
		}
	})

	return instance
}
