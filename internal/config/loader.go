// Package config provides configuration management for the Matchpoint service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment
// variables. Environment variable placeholders in the YAML file (${VAR})
// are expanded before parsing.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MATCHPOINT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// Missing file is fine; defaults plus environment variables apply.

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	applyLegacyEnvOverrides(cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "matchpoint")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("provider.base_url", "https://api.sportradar.com/tennis/trial/v3/en")
	v.SetDefault("provider.timeout_seconds", 15)
	v.SetDefault("provider.retry_max", 1)
	v.SetDefault("provider.rate_limit", 1.0)

	v.SetDefault("prediction.hist_weight_month", 0.5)
	v.SetDefault("prediction.hist_weight_surface", 2.0)
	v.SetDefault("prediction.hist_weight_speed", 2.0)
	v.SetDefault("prediction.default_years_back", 4)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_live_seconds", 12*3600)
	v.SetDefault("cache.ttl_hist_seconds", 30*24*3600)
	v.SetDefault("cache.memory_max_entries", 10000)

	v.SetDefault("ingestion.archive_base_url", "https://raw.githubusercontent.com/JeffSackmann/tennis_atp/master")
	v.SetDefault("ingestion.timeout_seconds", 60)
	v.SetDefault("ingestion.rate_limit", 2.0)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.prune_cron", "17 3 * * *")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 5)
	v.SetDefault("server.write_timeout_seconds", 30)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// applyLegacyEnvOverrides honors the short environment variable names that
// predate the structured config: the historical weight knobs, the per-mode
// cache TTLs, and the provider API key.
func applyLegacyEnvOverrides(cfg *Config) {
	if v, ok := envFloat("HIST_W_MONTH"); ok {
		cfg.Prediction.HistWeightMonth = v
	}
	if v, ok := envFloat("HIST_W_SURF"); ok {
		cfg.Prediction.HistWeightSurface = v
	}
	if v, ok := envFloat("HIST_W_SPEED"); ok {
		cfg.Prediction.HistWeightSpeed = v
	}
	if v, ok := envInt("CACHE_TTL_SR_SECS"); ok {
		cfg.Cache.TTLLiveSeconds = v
	}
	if v, ok := envInt("CACHE_TTL_HIST_SECS"); ok {
		cfg.Cache.TTLHistSeconds = v
	}
	if v := strings.TrimSpace(os.Getenv("SR_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	}
}

func envFloat(name string) (float64, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
