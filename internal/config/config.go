// Package config provides configuration management for the Matchpoint service.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Provider   ProviderConfig   `mapstructure:"provider" validate:"required"`
	Prediction PredictionConfig `mapstructure:"prediction" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// ProviderConfig represents the external NOW-data provider configuration.
// An empty API key disables live current-form signals; predictions then run
// on historical data alone.
type ProviderConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryMax       int     `mapstructure:"retry_max" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gt=0"`
}

// LiveEnabled reports whether live NOW-data fetches are configured.
func (p ProviderConfig) LiveEnabled() bool {
	return p.APIKey != ""
}

// Timeout returns the per-call provider timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// PredictionConfig represents scoring configuration. The historical weights
// are normalized by their absolute sum, so only ratios matter.
type PredictionConfig struct {
	HistWeightMonth   float64 `mapstructure:"hist_weight_month"`
	HistWeightSurface float64 `mapstructure:"hist_weight_surface"`
	HistWeightSpeed   float64 `mapstructure:"hist_weight_speed"`
	DefaultYearsBack  int     `mapstructure:"default_years_back" validate:"required,gt=0"`
}

// CacheConfig represents matchup cache configuration. TTLs differ by data
// mode: current-form signals move daily, historical aggregates move slowly.
type CacheConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	TTLLiveSeconds   int  `mapstructure:"ttl_live_seconds" validate:"required,gt=0"`
	TTLHistSeconds   int  `mapstructure:"ttl_hist_seconds" validate:"required,gt=0"`
	MemoryMaxEntries int  `mapstructure:"memory_max_entries" validate:"required,gt=0"`
}

// TTLLive returns the cache TTL used when live NOW data feeds the result.
func (c CacheConfig) TTLLive() time.Duration {
	return time.Duration(c.TTLLiveSeconds) * time.Second
}

// TTLHist returns the cache TTL used for historical-only results.
func (c CacheConfig) TTLHist() time.Duration {
	return time.Duration(c.TTLHistSeconds) * time.Second
}

// IngestionConfig represents the historical results importer configuration.
// The archive serves one CSV of completed tour matches per season.
type IngestionConfig struct {
	ArchiveBaseURL string  `mapstructure:"archive_base_url" validate:"omitempty,url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// Timeout returns the per-download timeout.
func (i IngestionConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// SchedulerConfig represents background job configuration.
type SchedulerConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	PruneCron string `mapstructure:"prune_cron"`
}

// ServerConfig represents the HTTP API server configuration.
type ServerConfig struct {
	Port                int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
