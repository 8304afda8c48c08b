// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Sources SourcesConfig `mapstructure:"sources"`
	Data    DataConfig    `mapstructure:"data"`
	DB      DBConfig      `mapstructure:"db"`
	Daily   DailyConfig   `mapstructure:"daily"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig configures the rate-limited fetcher.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxRetries       int     `mapstructure:"max_retries"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
	Concurrency      int     `mapstructure:"concurrency"`
	PerHostRPS       float64 `mapstructure:"per_host_rps"`
	PerHostBurst     int     `mapstructure:"per_host_burst"`
	UserAgent        string  `mapstructure:"user_agent"`
}

// SourcesConfig holds base URLs for every external provider. Overridable so
// tests and mirrors can point elsewhere.
type SourcesConfig struct {
	StatsAPIBaseURL   string `mapstructure:"statsapi_base_url"`
	SavantBaseURL     string `mapstructure:"savant_base_url"`
	RotoWireBaseURL   string `mapstructure:"rotowire_base_url"`
	UmpiresBaseURL    string `mapstructure:"umpires_base_url"`
	DraftKingsBaseURL string `mapstructure:"draftkings_base_url"`
	HeadlessFallback  bool   `mapstructure:"headless_fallback"`
}

// DataConfig sets filesystem layout and batching for the dataset stores.
type DataConfig struct {
	Dir         string `mapstructure:"dir"`
	RawDir      string `mapstructure:"raw_dir"`
	LogDir      string `mapstructure:"log_dir"`
	BatchSize   int    `mapstructure:"batch_size"`
	ArchiveRaw  bool   `mapstructure:"archive_raw"`
	MaxRawBytes int64  `mapstructure:"max_raw_bytes"`
}

// DBConfig controls the optional Postgres mirror. Empty DSN disables it.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int32  `mapstructure:"max_open_conns"`
	MinConns     int32  `mapstructure:"min_conns"`
}

// DailyConfig governs the daily scheduler entry point.
type DailyConfig struct {
	CronSpec    string `mapstructure:"cron_spec"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YRFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.concurrency", 4)
	v.SetDefault("http.per_host_rps", 1)
	v.SetDefault("http.per_host_burst", 1)
	v.SetDefault("http.user_agent", "yrfi-pipeline/0.1 (+github.com/diamondsights/yrfi-pipeline)")

	v.SetDefault("sources.statsapi_base_url", "https://statsapi.mlb.com/api")
	v.SetDefault("sources.savant_base_url", "https://baseballsavant.mlb.com")
	v.SetDefault("sources.rotowire_base_url", "https://www.rotowire.com/baseball")
	v.SetDefault("sources.umpires_base_url", "https://umpirescorecards.com")
	v.SetDefault("sources.draftkings_base_url", "https://sportsbook-nash.draftkings.com/api/sportscontent/dkusnj/v1")
	v.SetDefault("sources.headless_fallback", false)

	v.SetDefault("data.dir", "data/mlb")
	v.SetDefault("data.raw_dir", "data/raw")
	v.SetDefault("data.log_dir", "logs")
	v.SetDefault("data.batch_size", 25)
	v.SetDefault("data.archive_raw", false)
	v.SetDefault("data.max_raw_bytes", 5*1024*1024)

	v.SetDefault("db.max_open_conns", 4)
	v.SetDefault("db.min_conns", 1)

	v.SetDefault("daily.cron_spec", "0 23 * * *")
	v.SetDefault("daily.metrics_port", 9190)

	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.Concurrency <= 0 {
		return fmt.Errorf("http.concurrency must be > 0")
	}
	if c.HTTP.PerHostRPS <= 0 {
		return fmt.Errorf("http.per_host_rps must be > 0")
	}
	if c.Data.BatchSize <= 0 {
		return fmt.Errorf("data.batch_size must be > 0")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Daily.MetricsPort <= 0 {
		return fmt.Errorf("daily.metrics_port must be > 0")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase converts the initial backoff into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the backoff ceiling into a duration.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}
