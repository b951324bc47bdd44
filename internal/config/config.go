// Package config provides configuration management.
// All settings are read from the environment via viper; defaults are safe
// for a standalone process with no external services attached.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"finopsguard/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Server contains HTTP server settings
	Server ServerConfig

	// Redis contains cache settings
	Redis RedisConfig

	// Database contains durable store settings
	Database DatabaseConfig

	// Pricing contains pricing adapter settings
	Pricing PricingConfig

	// Usage contains usage integration settings
	Usage UsageConfig

	// Audit contains audit logging settings
	Audit AuditConfig

	// Webhook contains webhook dispatcher settings
	Webhook WebhookConfig

	// Logging contains logging configuration
	Logging logging.Config
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string
	Port int
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig contains Redis cache settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	DB       int
	Password string

	// DialTimeout bounds connection establishment
	DialTimeout time.Duration

	// ReadTimeout bounds individual cache reads
	ReadTimeout time.Duration
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseConfig contains durable store settings
type DatabaseConfig struct {
	Enabled  bool
	URL      string
	PoolSize int
}

// PricingConfig contains pricing adapter settings
type PricingConfig struct {
	// LiveEnabled turns on live provider pricing lookups
	LiveEnabled bool

	// FallbackToStatic consults the static catalog when a live lookup fails
	FallbackToStatic bool

	// Per-cloud live adapter toggles
	AWSEnabled   bool
	GCPEnabled   bool
	AzureEnabled bool

	// LiveTimeout bounds a single live pricing call
	LiveTimeout time.Duration

	// CacheTTL is how long price quotes stay cached
	CacheTTL time.Duration
}

// UsageConfig contains usage integration settings
type UsageConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// AuditConfig contains audit logging settings
type AuditConfig struct {
	Enabled        bool
	LogFile        string
	ConsoleLogging bool
	DBLogging      bool
}

// WebhookConfig contains webhook dispatcher settings
type WebhookConfig struct {
	// RetryInterval is how often the retry loop scans for due deliveries
	RetryInterval time.Duration

	// RetryBatchSize is the maximum deliveries retried per scan
	RetryBatchSize int
}

// Load reads configuration from the environment
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8080)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_POOL_SIZE", 10)

	v.SetDefault("LIVE_PRICING_ENABLED", false)
	v.SetDefault("PRICING_FALLBACK_TO_STATIC", true)
	v.SetDefault("AWS_PRICING_ENABLED", false)
	v.SetDefault("GCP_PRICING_ENABLED", false)
	v.SetDefault("AZURE_PRICING_ENABLED", false)
	v.SetDefault("PRICING_CACHE_TTL_SECONDS", 86400)

	v.SetDefault("USAGE_INTEGRATION_ENABLED", false)
	v.SetDefault("USAGE_CACHE_TTL_SECONDS", 3600)

	v.SetDefault("AUDIT_LOGGING_ENABLED", true)
	v.SetDefault("AUDIT_LOG_FILE", "")
	v.SetDefault("AUDIT_CONSOLE_LOGGING", true)
	v.SetDefault("AUDIT_DB_LOGGING", false)

	v.SetDefault("WEBHOOK_RETRY_INTERVAL_SECONDS", 60)
	v.SetDefault("WEBHOOK_RETRY_BATCH_SIZE", 10)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	return &Config{
		Server: ServerConfig{
			Host: v.GetString("HOST"),
			Port: v.GetInt("PORT"),
		},
		Redis: RedisConfig{
			Enabled:     v.GetBool("REDIS_ENABLED"),
			Host:        v.GetString("REDIS_HOST"),
			Port:        v.GetInt("REDIS_PORT"),
			DB:          v.GetInt("REDIS_DB"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DialTimeout: 5 * time.Second,
			ReadTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			URL:      v.GetString("DATABASE_URL"),
			PoolSize: v.GetInt("DB_POOL_SIZE"),
		},
		Pricing: PricingConfig{
			LiveEnabled:      v.GetBool("LIVE_PRICING_ENABLED"),
			FallbackToStatic: v.GetBool("PRICING_FALLBACK_TO_STATIC"),
			AWSEnabled:       v.GetBool("AWS_PRICING_ENABLED"),
			GCPEnabled:       v.GetBool("GCP_PRICING_ENABLED"),
			AzureEnabled:     v.GetBool("AZURE_PRICING_ENABLED"),
			LiveTimeout:      10 * time.Second,
			CacheTTL:         time.Duration(v.GetInt("PRICING_CACHE_TTL_SECONDS")) * time.Second,
		},
		Usage: UsageConfig{
			Enabled:  v.GetBool("USAGE_INTEGRATION_ENABLED"),
			CacheTTL: time.Duration(v.GetInt("USAGE_CACHE_TTL_SECONDS")) * time.Second,
		},
		Audit: AuditConfig{
			Enabled:        v.GetBool("AUDIT_LOGGING_ENABLED"),
			LogFile:        v.GetString("AUDIT_LOG_FILE"),
			ConsoleLogging: v.GetBool("AUDIT_CONSOLE_LOGGING"),
			DBLogging:      v.GetBool("AUDIT_DB_LOGGING"),
		},
		Webhook: WebhookConfig{
			RetryInterval:  time.Duration(v.GetInt("WEBHOOK_RETRY_INTERVAL_SECONDS")) * time.Second,
			RetryBatchSize: v.GetInt("WEBHOOK_RETRY_BATCH_SIZE"),
		},
		Logging: logging.Config{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: "stderr",
		},
	}
}
