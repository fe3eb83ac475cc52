// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Indexer, Cache, Redis, Kafka, Analytics, Logging, Metrics).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/errors"
)

// Cache backends accepted by CacheConfig.Backend.
const (
	CacheNone  = "none"
	CacheLRU   = "lru"
	CacheRedis = "redis"
)

// Config is the top-level application configuration.
type Config struct {
	Indexer   IndexerConfig   `yaml:"indexer"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// IndexerConfig controls tokenization and directory traversal.
type IndexerConfig struct {
	Strategy       string `yaml:"strategy"`
	Workers        int    `yaml:"workers"`
	FollowSymlinks bool   `yaml:"followSymlinks"`
	Watch          bool   `yaml:"watch"`
	MaxFileSize    int64  `yaml:"maxFileSize"`
}

// CacheConfig selects and sizes the query result cache.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection parameters for the shared cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// AnalyticsConfig controls event batching. A batch is published when
// BatchSize events are waiting or every FlushInterval; BufferSize caps the
// events held in memory.
type AnalyticsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BufferSize    int           `yaml:"bufferSize"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a validated Config populated with defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrConfig, path, "reading config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrConfig, path, "parsing config file", err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Indexer: IndexerConfig{
			Strategy: "simple",
			Workers:  1,
		},
		Cache: CacheConfig{
			Backend: CacheLRU,
			Size:    1024,
			TTL:     5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "textindex-events",
		},
		Analytics: AnalyticsConfig{
			Enabled:       false,
			BufferSize:    1000,
			BatchSize:     100,
			FlushInterval: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Validate reports the first invalid setting as an ErrConfig.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Indexer.Strategy) {
	case "simple", "advanced":
	default:
		return apperrors.Newf(apperrors.ErrConfig, "unknown tokenizer strategy %q", c.Indexer.Strategy)
	}
	if c.Indexer.Workers < 1 {
		return apperrors.Newf(apperrors.ErrConfig, "indexer.workers must be at least 1, got %d", c.Indexer.Workers)
	}
	if c.Indexer.MaxFileSize < 0 {
		return apperrors.Newf(apperrors.ErrConfig, "indexer.maxFileSize must not be negative, got %d", c.Indexer.MaxFileSize)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheLRU, CacheRedis:
	default:
		return apperrors.Newf(apperrors.ErrConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheLRU && c.Cache.Size < 1 {
		return apperrors.Newf(apperrors.ErrConfig, "cache.size must be at least 1 for the lru backend, got %d", c.Cache.Size)
	}
	if c.Analytics.Enabled && len(c.Kafka.Brokers) == 0 {
		return apperrors.New(apperrors.ErrConfig, "analytics requires at least one kafka broker")
	}
	if c.Analytics.Enabled && c.Analytics.BatchSize < 1 {
		return apperrors.Newf(apperrors.ErrConfig, "analytics.batchSize must be at least 1, got %d", c.Analytics.BatchSize)
	}
	if c.Analytics.Enabled && c.Analytics.FlushInterval <= 0 {
		return apperrors.Newf(apperrors.ErrConfig, "analytics.flushInterval must be positive, got %s", c.Analytics.FlushInterval)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return apperrors.Newf(apperrors.ErrConfig, "metrics.port out of range: %d", c.Metrics.Port)
	}
	return nil
}

// applyEnvOverrides reads TFI_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TFI_INDEXER_STRATEGY"); v != "" {
		cfg.Indexer.Strategy = v
	}
	if v := os.Getenv("TFI_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("TFI_INDEXER_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Indexer.Watch = b
		}
	}
	if v := os.Getenv("TFI_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("TFI_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TFI_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TFI_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TFI_ANALYTICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analytics.Enabled = b
		}
	}
	if v := os.Getenv("TFI_ANALYTICS_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analytics.FlushInterval = d
		}
	}
	if v := os.Getenv("TFI_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TFI_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TFI_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("TFI_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
