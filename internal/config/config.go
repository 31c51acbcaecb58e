// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // worker.timezone must resolve in minimal images

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	KoreaExim  KoreaEximConfig `mapstructure:"koreaexim"`
	Worker     WorkerConfig
	Cache      CacheConfig
	Pagination PaginationConfig
	Kafka      KafkaConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ServeSwagger   bool   `mapstructure:"serve_swagger"`
	ServeAsynqmon  bool   `mapstructure:"serve_asynqmon"`
	FetchRateLimit string `mapstructure:"fetch_rate_limit"` // limiter formatted rate, e.g. "10-M"
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for Asynq task queue (required).
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for application cache (required).
}

// KoreaEximConfig holds settings for the Korea Eximbank exchange rate API.
// APIKey is intentionally not validated at startup: a missing key fails each fetch instead.
type KoreaEximConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	DataCode   string `mapstructure:"data_code"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// Timeout returns the outbound request timeout.
func (c KoreaEximConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency      int    `mapstructure:"concurrency"`
	MaxRetry         int    `mapstructure:"max_retry"`
	TimeoutSec       int    `mapstructure:"timeout_sec"`
	CheckIntervalSec int    `mapstructure:"check_interval_sec"`
	ScheduleCron     string `mapstructure:"schedule_cron"` // empty disables the periodic fetch
	Timezone         string `mapstructure:"timezone"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	RateTTLSec     int `mapstructure:"rate_ttl_sec"`
	ProviderTTLSec int `mapstructure:"provider_ttl_sec"`
}

// PaginationConfig holds list endpoint paging defaults.
type PaginationConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

// KafkaConfig holds settings for publishing refresh events. No brokers means publishing is off.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Enabled reports whether refresh events should be published.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	v.SetEnvPrefix("RATESVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// AutomaticEnv does not split lists for us.
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeSec <= 0 {
		cfg.Database.ConnMaxLifetimeSec = 300
	}

	cfg.Database.DSN = BuildDSN(&cfg.Database)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.serve_swagger", true)
	v.SetDefault("server.serve_asynqmon", true)
	v.SetDefault("server.fetch_rate_limit", "10-M")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "ratesdb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	v.SetDefault("redis.cache_addr", "redis_cache:6381")
	v.SetDefault("koreaexim.base_url", "https://www.koreaexim.go.kr/site/program/financial/exchangeJSON")
	v.SetDefault("koreaexim.api_key", "")
	v.SetDefault("koreaexim.data_code", "AP01")
	v.SetDefault("koreaexim.timeout_sec", 30)
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.max_retry", 3)
	v.SetDefault("worker.timeout_sec", 60)
	v.SetDefault("worker.check_interval_sec", 5)
	v.SetDefault("worker.schedule_cron", "")
	v.SetDefault("worker.timezone", "Asia/Seoul")
	v.SetDefault("cache.rate_ttl_sec", 600)
	v.SetDefault("cache.provider_ttl_sec", 300)
	v.SetDefault("pagination.page_size", 100)
	v.SetDefault("pagination.max_page_size", 1000)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "rates.fetched")
}

// BuildDSN formats a postgres connection URL from the database settings.
func BuildDSN(db *DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password,
		db.Host, db.Port,
		db.Name, db.SSLMode)
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set RATESVC_REDIS_ASYNQ_ADDR)"))
	}
	if c.Redis.CacheAddr == "" {
		errs = append(errs, fmt.Errorf("redis.cache_addr is required (set RATESVC_REDIS_CACHE_ADDR)"))
	}

	if c.KoreaExim.BaseURL == "" {
		errs = append(errs, fmt.Errorf("koreaexim.base_url is required"))
	}
	if c.KoreaExim.DataCode == "" {
		errs = append(errs, fmt.Errorf("koreaexim.data_code is required"))
	}
	if c.KoreaExim.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("koreaexim.timeout_sec must be positive, got %d", c.KoreaExim.TimeoutSec))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.CheckIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.check_interval_sec must be positive, got %d", c.Worker.CheckIntervalSec))
	}
	if c.Worker.Timezone != "" {
		if _, err := time.LoadLocation(c.Worker.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("worker.timezone %q: %w", c.Worker.Timezone, err))
		}
	}

	if c.Cache.RateTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.rate_ttl_sec must be positive, got %d", c.Cache.RateTTLSec))
	}
	if c.Cache.ProviderTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.provider_ttl_sec must be positive, got %d", c.Cache.ProviderTTLSec))
	}

	if c.Pagination.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("pagination.page_size must be positive, got %d", c.Pagination.PageSize))
	}
	if c.Pagination.MaxPageSize < c.Pagination.PageSize {
		errs = append(errs, fmt.Errorf("pagination.max_page_size (%d) must be >= page_size (%d)",
			c.Pagination.MaxPageSize, c.Pagination.PageSize))
	}

	return errors.Join(errs...)
}
