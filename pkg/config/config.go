package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/docshift-inc/docshift-engine/pkg/apperrors"
)

// Config holds all configuration for docshift-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (account keys, passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Source Cosmos DB account
	Source SourceConfig `yaml:"source"`

	// Sampling behavior
	Sampling SamplingConfig `yaml:"sampling"`

	// Target SQL platform naming and optional connectivity check
	Target TargetConfig `yaml:"target"`

	// Platform recommendation thresholds
	Recommendation RecommendationConfig `yaml:"recommendation"`

	// Report output
	Reports ReportsConfig `yaml:"reports"`

	// Optional report bundle upload
	Artifacts ArtifactsConfig `yaml:"artifacts"`
}

// SourceConfig holds Cosmos DB account settings.
type SourceConfig struct {
	Endpoint string `yaml:"endpoint" env:"COSMOS_ENDPOINT" env-default:""`
	// AccountKey is a secret and must come from the environment.
	AccountKey string `yaml:"-" env:"COSMOS_ACCOUNT_KEY"`
	// DatabasesStr is a comma-separated list of databases to assess.
	// Empty means every database in the account.
	DatabasesStr string `yaml:"databases" env:"COSMOS_DATABASES" env-default:""`
	// Databases is the parsed list from DatabasesStr.
	Databases []string `yaml:"-"`
}

// SamplingConfig controls how documents are sampled per container.
type SamplingConfig struct {
	// DocumentsPerContainer is the fixed sample size per container.
	DocumentsPerContainer int `yaml:"documents_per_container" env:"SAMPLE_DOCUMENTS_PER_CONTAINER" env-default:"100"`
	// ArrayElementCap bounds how many elements of one array contribute to a
	// child-table shape.
	ArrayElementCap int `yaml:"array_element_cap" env:"SAMPLE_ARRAY_ELEMENT_CAP" env-default:"10"`
}

// TargetConfig holds target SQL platform settings.
type TargetConfig struct {
	// SchemaName is the schema generated tables live under.
	SchemaName string `yaml:"schema_name" env:"TARGET_SCHEMA_NAME" env-default:"dbo"`
	// Host/Port/Database/Username are only needed with --validate-target.
	Host     string `yaml:"host" env:"TARGET_HOST" env-default:""`
	Port     int    `yaml:"port" env:"TARGET_PORT" env-default:"1433"`
	Database string `yaml:"database" env:"TARGET_DATABASE" env-default:""`
	Username string `yaml:"username" env:"TARGET_USERNAME" env-default:""`
	// Password is a secret and must come from the environment.
	Password string `yaml:"-" env:"TARGET_PASSWORD"`
	Encrypt  bool   `yaml:"encrypt" env:"TARGET_ENCRYPT" env-default:"true"`
	TrustServerCertificate bool `yaml:"trust_server_certificate" env:"TARGET_TRUST_SERVER_CERTIFICATE" env-default:"false"`
}

// RecommendationConfig holds platform/tier/complexity thresholds. The default
// values are load-bearing: compatibility tests reproduce them verbatim.
type RecommendationConfig struct {
	// MaxDocumentsSQLDatabase is the document count above which Azure SQL
	// Database is no longer recommended.
	MaxDocumentsSQLDatabase int64 `yaml:"max_documents_sql_database" env:"REC_MAX_DOCS_SQL_DATABASE" env-default:"100000000"`
	// MaxSizeBytesSQLDatabase is the data size above which Azure SQL Database
	// is no longer recommended (default 4 TB).
	MaxSizeBytesSQLDatabase int64 `yaml:"max_size_bytes_sql_database" env:"REC_MAX_SIZE_SQL_DATABASE" env-default:"4398046511104"`
	// MaxSizeBytesManagedInstance is the data size above which only a VM
	// target is recommended (default 16 TB).
	MaxSizeBytesManagedInstance int64 `yaml:"max_size_bytes_managed_instance" env:"REC_MAX_SIZE_MANAGED_INSTANCE" env-default:"17592186044416"`
	// HyperscaleSizeBytes is the data size at which Hyperscale is preferred
	// over General Purpose (default 1 TB).
	HyperscaleSizeBytes int64 `yaml:"hyperscale_size_bytes" env:"REC_HYPERSCALE_SIZE" env-default:"1099511627776"`
	// BusinessCriticalThroughputRU is the peak provisioned throughput at
	// which Business Critical is recommended.
	BusinessCriticalThroughputRU int32 `yaml:"business_critical_throughput_ru" env:"REC_BUSINESS_CRITICAL_RU" env-default:"50000"`
	// MaxCompositeIndexesLow is the composite index count below which the
	// migration is considered low complexity.
	MaxCompositeIndexesLow int `yaml:"max_composite_indexes_low" env:"REC_MAX_COMPOSITE_INDEXES_LOW" env-default:"5"`
	// MaxSharedSchemasLow is the shared schema count below which the
	// migration is considered low complexity.
	MaxSharedSchemasLow int `yaml:"max_shared_schemas_low" env:"REC_MAX_SHARED_SCHEMAS_LOW" env-default:"3"`
	// MigrationRateBytesPerHour is the assumed sustained copy rate used by
	// the duration estimate (default 50 GB/h).
	MigrationRateBytesPerHour int64 `yaml:"migration_rate_bytes_per_hour" env:"REC_MIGRATION_RATE_BYTES_PER_HOUR" env-default:"53687091200"`
	// MigrationCostPerHourUSD is the assumed hourly cost of the migration
	// pipeline used by the cost estimate.
	MigrationCostPerHourUSD float64 `yaml:"migration_cost_per_hour_usd" env:"REC_MIGRATION_COST_PER_HOUR_USD" env-default:"12.5"`
}

// ReportsConfig controls where report artifacts are written.
type ReportsConfig struct {
	OutputDir string `yaml:"output_dir" env:"REPORTS_OUTPUT_DIR" env-default:"./assessment-out"`
}

// ArtifactsConfig holds optional S3-compatible upload settings for the
// report bundle.
type ArtifactsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ARTIFACTS_ENABLED" env-default:"false"`
	Endpoint  string `yaml:"endpoint" env:"ARTIFACTS_ENDPOINT" env-default:""`
	Bucket    string `yaml:"bucket" env:"ARTIFACTS_BUCKET" env-default:"docshift-assessments"`
	AccessKey string `yaml:"-" env:"ARTIFACTS_ACCESS_KEY"`
	SecretKey string `yaml:"-" env:"ARTIFACTS_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" env:"ARTIFACTS_USE_SSL" env-default:"true"`
}

// Load reads configuration from config.yaml (if present) and the environment.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML path (if present) and the
// environment, then validates it.
func LoadFrom(path, version string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read config from environment: %w", err)
		}
	}

	cfg.Version = version
	cfg.Source.Databases = splitList(cfg.Source.DatabasesStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast before any sampling begins.
func (c *Config) Validate() error {
	if c.Source.Endpoint == "" {
		return fmt.Errorf("%w: source endpoint is required (COSMOS_ENDPOINT)", apperrors.ErrInvalidConfig)
	}
	if c.Source.AccountKey == "" {
		return fmt.Errorf("%w: source account key is required (COSMOS_ACCOUNT_KEY)", apperrors.ErrInvalidConfig)
	}
	if c.Sampling.DocumentsPerContainer <= 0 {
		return fmt.Errorf("%w: documents_per_container must be positive, got %d",
			apperrors.ErrInvalidConfig, c.Sampling.DocumentsPerContainer)
	}
	if c.Sampling.ArrayElementCap <= 0 {
		return fmt.Errorf("%w: array_element_cap must be positive, got %d",
			apperrors.ErrInvalidConfig, c.Sampling.ArrayElementCap)
	}
	if c.Target.SchemaName == "" {
		return fmt.Errorf("%w: target schema name must not be empty", apperrors.ErrInvalidConfig)
	}
	if c.Artifacts.Enabled && c.Artifacts.Endpoint == "" {
		return fmt.Errorf("%w: artifacts endpoint is required when upload is enabled", apperrors.ErrInvalidConfig)
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
