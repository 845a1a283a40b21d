package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	S3      S3Config
	Log     LogConfig
	CORS    CORSConfig
	Queue   QueueConfig
	Parse   ParseConfig
	Backend BackendConfig
	OCR     OCRConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for document storage.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// QueueConfig holds parse queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// ParseConfig holds the orchestration policy for document parsing.
// The tiling constants are tunable policy values, not structural limits;
// defaults are conservative and meant to be adjusted against the real
// backend's compression and payload behavior.
type ParseConfig struct {
	EnableFullDocument bool `mapstructure:"enable_full_document"`
	EnableTiling       bool `mapstructure:"enable_tiling"`
	EnableOCR          bool `mapstructure:"enable_ocr"`

	// Full-document strategy bounds.
	FullDocMaxSizeMB int `mapstructure:"fulldoc_max_size_mb"`
	FullDocMaxPages  int `mapstructure:"fulldoc_max_pages"`

	// Tiling strategy policy.
	ByteBudget       int64   `mapstructure:"byte_budget"`        // hard per-call payload limit
	ByteBudgetMargin float64 `mapstructure:"byte_budget_margin"` // fraction of budget to target
	OverlapFraction  float64 `mapstructure:"overlap_fraction"`
	Concurrency      int     `mapstructure:"concurrency"` // max in-flight tile calls
	CoarseDPI        int     `mapstructure:"coarse_dpi"`
	DetailDPI        int     `mapstructure:"detail_dpi"`
	JPEGQualityMax   int     `mapstructure:"jpeg_quality_max"`
	JPEGQualityMin   int     `mapstructure:"jpeg_quality_min"`
	MaxTilePx        int     `mapstructure:"max_tile_px"` // hard cap per tile side

	// Aggregation policy.
	DedupThreshold float64 `mapstructure:"dedup_threshold"`

	TileTimeoutSecs int `mapstructure:"tile_timeout_secs"`
}

// BackendProviderConfig holds settings for a single vision backend provider.
type BackendProviderConfig struct {
	Provider        string `mapstructure:"provider"`
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	TimeoutSecs     int    `mapstructure:"timeout_secs"`
	MaxOutputTokens int    `mapstructure:"max_output_tokens"`
}

// BackendConfig holds vision backend settings with multi-provider support.
type BackendConfig struct {
	Primary   BackendProviderConfig `mapstructure:"primary"`
	Secondary BackendProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (b *BackendConfig) SecondaryConfig() *BackendProviderConfig {
	if b.Secondary.Provider != "" {
		return &b.Secondary
	}
	return nil
}

// OCRConfig holds local OCR engine settings.
type OCRConfig struct {
	Language  string `mapstructure:"language"`
	DPI       int    `mapstructure:"dpi"`
	PSM       int    `mapstructure:"psm"`
	Pdftoppm  string `mapstructure:"pdftoppm"`  // binary name or absolute path
	Pdftotext string `mapstructure:"pdftotext"` // binary name or absolute path
}

// Load reads configuration from environment variables with the TAKEOFF_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TAKEOFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "takeoff")
	v.SetDefault("db.password", "takeoff_secret")
	v.SetDefault("db.name", "takeoff_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "takeoff-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 200)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 2)

	// Parse defaults
	v.SetDefault("parse.enable_full_document", true)
	v.SetDefault("parse.enable_tiling", true)
	v.SetDefault("parse.enable_ocr", true)
	v.SetDefault("parse.fulldoc_max_size_mb", 50)
	v.SetDefault("parse.fulldoc_max_pages", 10)
	v.SetDefault("parse.byte_budget", 5*1024*1024)
	v.SetDefault("parse.byte_budget_margin", 0.80)
	v.SetDefault("parse.overlap_fraction", 0.10)
	v.SetDefault("parse.concurrency", 5)
	v.SetDefault("parse.coarse_dpi", 100)
	v.SetDefault("parse.detail_dpi", 300)
	v.SetDefault("parse.jpeg_quality_max", 90)
	v.SetDefault("parse.jpeg_quality_min", 85)
	v.SetDefault("parse.max_tile_px", 2000)
	v.SetDefault("parse.dedup_threshold", 0.85)
	v.SetDefault("parse.tile_timeout_secs", 120)

	// Backend defaults
	v.SetDefault("backend.primary.provider", "anthropic")
	v.SetDefault("backend.primary.api_key", "")
	v.SetDefault("backend.primary.model", "claude-sonnet-4-20250514")
	v.SetDefault("backend.primary.timeout_secs", 120)
	v.SetDefault("backend.primary.max_output_tokens", 16384)
	v.SetDefault("backend.secondary.provider", "")
	v.SetDefault("backend.secondary.api_key", "")
	v.SetDefault("backend.secondary.model", "")
	v.SetDefault("backend.secondary.timeout_secs", 120)
	v.SetDefault("backend.secondary.max_output_tokens", 16384)

	// OCR defaults
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.psm", 6)
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.pdftotext", "pdftotext")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                         "TAKEOFF_SERVER_PORT",
		"server.read_timeout":                 "TAKEOFF_SERVER_READ_TIMEOUT",
		"server.write_timeout":                "TAKEOFF_SERVER_WRITE_TIMEOUT",
		"server.environment":                  "TAKEOFF_SERVER_ENVIRONMENT",
		"db.host":                             "TAKEOFF_DB_HOST",
		"db.port":                             "TAKEOFF_DB_PORT",
		"db.user":                             "TAKEOFF_DB_USER",
		"db.password":                         "TAKEOFF_DB_PASSWORD",
		"db.name":                             "TAKEOFF_DB_NAME",
		"db.sslmode":                          "TAKEOFF_DB_SSLMODE",
		"db.max_open":                         "TAKEOFF_DB_MAX_OPEN",
		"db.max_idle":                         "TAKEOFF_DB_MAX_IDLE",
		"s3.region":                           "TAKEOFF_S3_REGION",
		"s3.bucket":                           "TAKEOFF_S3_BUCKET",
		"s3.endpoint":                         "TAKEOFF_S3_ENDPOINT",
		"s3.access_key":                       "TAKEOFF_S3_ACCESS_KEY",
		"s3.secret_key":                       "TAKEOFF_S3_SECRET_KEY",
		"s3.max_file_size_mb":                 "TAKEOFF_S3_MAX_FILE_SIZE_MB",
		"log.level":                           "TAKEOFF_LOG_LEVEL",
		"log.format":                          "TAKEOFF_LOG_FORMAT",
		"cors.allowed_origins":                "TAKEOFF_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":            "TAKEOFF_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                   "TAKEOFF_QUEUE_MAX_RETRIES",
		"queue.concurrency":                   "TAKEOFF_QUEUE_CONCURRENCY",
		"parse.enable_full_document":          "TAKEOFF_PARSE_ENABLE_FULL_DOCUMENT",
		"parse.enable_tiling":                 "TAKEOFF_PARSE_ENABLE_TILING",
		"parse.enable_ocr":                    "TAKEOFF_PARSE_ENABLE_OCR",
		"parse.fulldoc_max_size_mb":           "TAKEOFF_PARSE_FULLDOC_MAX_SIZE_MB",
		"parse.fulldoc_max_pages":             "TAKEOFF_PARSE_FULLDOC_MAX_PAGES",
		"parse.byte_budget":                   "TAKEOFF_PARSE_BYTE_BUDGET",
		"parse.byte_budget_margin":            "TAKEOFF_PARSE_BYTE_BUDGET_MARGIN",
		"parse.overlap_fraction":              "TAKEOFF_PARSE_OVERLAP_FRACTION",
		"parse.concurrency":                   "TAKEOFF_PARSE_CONCURRENCY",
		"parse.coarse_dpi":                    "TAKEOFF_PARSE_COARSE_DPI",
		"parse.detail_dpi":                    "TAKEOFF_PARSE_DETAIL_DPI",
		"parse.jpeg_quality_max":              "TAKEOFF_PARSE_JPEG_QUALITY_MAX",
		"parse.jpeg_quality_min":              "TAKEOFF_PARSE_JPEG_QUALITY_MIN",
		"parse.max_tile_px":                   "TAKEOFF_PARSE_MAX_TILE_PX",
		"parse.dedup_threshold":               "TAKEOFF_PARSE_DEDUP_THRESHOLD",
		"parse.tile_timeout_secs":             "TAKEOFF_PARSE_TILE_TIMEOUT_SECS",
		"backend.primary.provider":            "TAKEOFF_BACKEND_PRIMARY_PROVIDER",
		"backend.primary.api_key":             "TAKEOFF_BACKEND_PRIMARY_API_KEY",
		"backend.primary.model":               "TAKEOFF_BACKEND_PRIMARY_MODEL",
		"backend.primary.timeout_secs":        "TAKEOFF_BACKEND_PRIMARY_TIMEOUT_SECS",
		"backend.primary.max_output_tokens":   "TAKEOFF_BACKEND_PRIMARY_MAX_OUTPUT_TOKENS",
		"backend.secondary.provider":          "TAKEOFF_BACKEND_SECONDARY_PROVIDER",
		"backend.secondary.api_key":           "TAKEOFF_BACKEND_SECONDARY_API_KEY",
		"backend.secondary.model":             "TAKEOFF_BACKEND_SECONDARY_MODEL",
		"backend.secondary.timeout_secs":      "TAKEOFF_BACKEND_SECONDARY_TIMEOUT_SECS",
		"backend.secondary.max_output_tokens": "TAKEOFF_BACKEND_SECONDARY_MAX_OUTPUT_TOKENS",
		"ocr.language":                        "TAKEOFF_OCR_LANGUAGE",
		"ocr.dpi":                             "TAKEOFF_OCR_DPI",
		"ocr.psm":                             "TAKEOFF_OCR_PSM",
		"ocr.pdftoppm":                        "TAKEOFF_OCR_PDFTOPPM",
		"ocr.pdftotext":                       "TAKEOFF_OCR_PDFTOTEXT",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Viper reads comma-separated origins from env as a single string.
	if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = strings.Split(cfg.CORS.AllowedOrigins[0], ",")
	}

	return &cfg, nil
}
