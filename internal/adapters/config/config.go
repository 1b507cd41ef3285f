package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"meridian/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	AI            AIConfig
	Pipeline      PipelineConfig
	Quality       QualityConfig
	Pricing       PricingConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"meridian"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"analytics"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"meridian"`
}

type AIConfig struct {
	// OpenAI is used for the optional embeddings-backed review clustering.
	OpenAIKey      string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// Path to the ONNX sentiment model. Empty means the lexicon classifier is used.
	SentimentModelPath string `envconfig:"SENTIMENT_MODEL_PATH"`

	// Requests per second allowed against external AI backends.
	RateLimit float64 `envconfig:"AI_RATE_LIMIT" default:"5"`
}

// PipelineConfig controls query execution behavior
type PipelineConfig struct {
	QuickTaskTimeout time.Duration `envconfig:"PIPELINE_QUICK_TASK_TIMEOUT" default:"10s"`
	DeepTaskTimeout  time.Duration `envconfig:"PIPELINE_DEEP_TASK_TIMEOUT" default:"45s"`

	CacheEnabled  bool          `envconfig:"PIPELINE_CACHE_ENABLED" default:"true"`
	CacheTTLQuick time.Duration `envconfig:"PIPELINE_CACHE_TTL_QUICK" default:"5m"`
	CacheTTLDeep  time.Duration `envconfig:"PIPELINE_CACHE_TTL_DEEP" default:"30m"`

	// Maximum review text length sent to the classifier.
	ClassifierMaxTextLen int `envconfig:"PIPELINE_CLASSIFIER_MAX_TEXT_LEN" default:"512"`
}

// QualityConfig tunes the data quality assessors
type QualityConfig struct {
	ProductFreshnessWindow time.Duration `envconfig:"QUALITY_PRODUCT_FRESHNESS_WINDOW" default:"720h"`  // 30 days
	ReviewFreshnessWindow  time.Duration `envconfig:"QUALITY_REVIEW_FRESHNESS_WINDOW" default:"2160h"`  // 90 days

	PriceOutlierZScore     float64 `envconfig:"QUALITY_PRICE_OUTLIER_ZSCORE" default:"3.0"`
	PriceOutlierHighZScore float64 `envconfig:"QUALITY_PRICE_OUTLIER_HIGH_ZSCORE" default:"4.0"`
	OutOfStockRateLimit    float64 `envconfig:"QUALITY_OUT_OF_STOCK_RATE_LIMIT" default:"0.5"`
}

// PricingConfig tunes the pricing agent
type PricingConfig struct {
	PriceChangeAlertPct  float64 `envconfig:"PRICING_CHANGE_ALERT_PCT" default:"5"`
	MaxDiscountPct       float64 `envconfig:"PRICING_MAX_DISCOUNT_PCT" default:"20"`
	MinMappingConfidence float64 `envconfig:"PRICING_MIN_MAPPING_CONFIDENCE" default:"0.80"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
	Port    int  `envconfig:"METRICS_PORT" default:"9090"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	QualityScanInterval time.Duration `envconfig:"WORKER_QUALITY_SCAN_INTERVAL" default:"1h"`
	QualityScanEnabled  bool          `envconfig:"WORKER_QUALITY_SCAN_ENABLED" default:"true"`

	JobReaperInterval time.Duration `envconfig:"WORKER_JOB_REAPER_INTERVAL" default:"10m"`
	JobReaperEnabled  bool          `envconfig:"WORKER_JOB_REAPER_ENABLED" default:"true"`
	JobMaxAge         time.Duration `envconfig:"WORKER_JOB_MAX_AGE" default:"24h"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
