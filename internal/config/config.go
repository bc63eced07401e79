package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/ppc-optimizer/internal/export"
	"github.com/ignite/ppc-optimizer/internal/optimizer"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Inbox     InboxConfig     `yaml:"inbox"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Export    ExportConfig    `yaml:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                int      `yaml:"port"`
	Host                string   `yaml:"host"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
	MaxUploadMB         int      `yaml:"max_upload_mb"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// ReadTimeout returns the read timeout as a duration
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// DatabaseConfig holds the Postgres connection used for client profiles.
// An empty URL keeps profiles in memory.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Enabled returns true when a database URL is configured
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// RedisConfig holds Redis settings for the result cache and run locks.
// An empty URL disables the cache and uses in-process locks.
type RedisConfig struct {
	URL              string `yaml:"url"`
	KeyPrefix        string `yaml:"key_prefix"`
	ResultTTLMinutes int    `yaml:"result_ttl_minutes"`
	LockTTLSeconds   int    `yaml:"lock_ttl_seconds"`
}

// Enabled returns true when a Redis URL is configured
func (c RedisConfig) Enabled() bool { return c.URL != "" }

// ResultTTL returns the cache lifetime of a run result
func (c RedisConfig) ResultTTL() time.Duration {
	return time.Duration(c.ResultTTLMinutes) * time.Minute
}

// LockTTL returns the lifetime of a per-client run lock
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type          string `yaml:"type"` // "local" or "s3"
	LocalPath     string `yaml:"local_path"`
	S3Bucket      string `yaml:"s3_bucket"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)

	// S3-compatible endpoint (MinIO, LocalStack) with static keys
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// OptimizerConfig holds the run-wide bid and placement limits.
type OptimizerConfig struct {
	optimizer.Limits `yaml:",inline"`
	Workers          int    `yaml:"workers"`
	DefaultStrategy  string `yaml:"default_strategy"`
}

// Options returns the optimizer run options
func (c OptimizerConfig) Options() optimizer.Options {
	return optimizer.Options{Limits: c.Limits, Workers: c.Workers}
}

// InboxConfig holds the scheduled report inbox settings.
type InboxConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Schedule        string `yaml:"schedule"` // cron spec, e.g. "@every 5m"
	Prefix          string `yaml:"prefix"`
	ProcessedPrefix string `yaml:"processed_prefix"`
	FailedPrefix    string `yaml:"failed_prefix"`
}

// WarehouseConfig holds the run history sink.
type WarehouseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"` // "postgres" or "snowflake"
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
}

// ExportConfig holds the defaults of the bulk workbook export.
type ExportConfig struct {
	SkipKeywordBids bool `yaml:"skip_keyword_bids"`
	SkipPauses      bool `yaml:"skip_pauses"`
	SkipPlacements  bool `yaml:"skip_placements"`
	TopChanges      int  `yaml:"top_changes"`
}

// Options returns the export toggles
func (c ExportConfig) Options() export.Options {
	return export.Options{
		KeywordBids: !c.SkipKeywordBids,
		Pauses:      !c.SkipPauses,
		Placements:  !c.SkipPlacements,
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 60
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 120
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "ppcopt:"
	}
	if cfg.Redis.ResultTTLMinutes == 0 {
		cfg.Redis.ResultTTLMinutes = 60
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 300
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "eu-central-1"
	}

	// Optimizer limits fall back field by field
	def := optimizer.DefaultLimits()
	if cfg.Optimizer.MaxIncreasePct == 0 {
		cfg.Optimizer.MaxIncreasePct = def.MaxIncreasePct
	}
	if cfg.Optimizer.MinBid == 0 {
		cfg.Optimizer.MinBid = def.MinBid
	}
	if cfg.Optimizer.FixedDecreasePct == 0 {
		cfg.Optimizer.FixedDecreasePct = def.FixedDecreasePct
	}
	if cfg.Optimizer.MinChangePct == 0 {
		cfg.Optimizer.MinChangePct = def.MinChangePct
	}
	if cfg.Optimizer.PlacementMaxPct == 0 {
		cfg.Optimizer.PlacementMaxPct = def.PlacementMaxPct
	}
	if cfg.Optimizer.Workers == 0 {
		cfg.Optimizer.Workers = 1
	}
	if cfg.Optimizer.DefaultStrategy == "" {
		cfg.Optimizer.DefaultStrategy = "standard"
	}

	if cfg.Inbox.Schedule == "" {
		cfg.Inbox.Schedule = "@every 5m"
	}
	if cfg.Inbox.Prefix == "" {
		cfg.Inbox.Prefix = "inbox/"
	}
	if cfg.Inbox.ProcessedPrefix == "" {
		cfg.Inbox.ProcessedPrefix = "processed/"
	}
	if cfg.Inbox.FailedPrefix == "" {
		cfg.Inbox.FailedPrefix = "failed/"
	}
	if cfg.Warehouse.Driver == "" {
		cfg.Warehouse.Driver = "postgres"
	}
	if cfg.Warehouse.Table == "" {
		cfg.Warehouse.Table = "optimization_runs"
	}
	if cfg.Export.TopChanges == 0 {
		cfg.Export.TopChanges = export.DefaultTopChanges
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("STORAGE_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
		cfg.Storage.Type = "s3"
	}
	if v := os.Getenv("STORAGE_DYNAMODB_TABLE"); v != "" {
		cfg.Storage.DynamoDBTable = v
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("WAREHOUSE_DRIVER"); v != "" {
		cfg.Warehouse.Driver = v
	}
	// Setting a DSN turns the warehouse sink on
	if v := os.Getenv("WAREHOUSE_DSN"); v != "" {
		cfg.Warehouse.DSN = v
		cfg.Warehouse.Enabled = true
	}

	return cfg, nil
}
