package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type AppConfig struct {
	Port        string   `mapstructure:"port"`
	Env         string   `mapstructure:"env"` // e.g., "local", "prod"
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type UpstreamConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	TimeoutSec         int    `mapstructure:"timeout_sec"`
	RetryMaxElapsedSec int    `mapstructure:"retry_max_elapsed_sec"`
}

type PollerConfig struct {
	Tickers         []string `mapstructure:"tickers"`
	IntervalSec     int      `mapstructure:"interval_sec"`
	FetchTimeoutSec int      `mapstructure:"fetch_timeout_sec"`
	MaxConcurrency  int      `mapstructure:"max_concurrency"`
}

type RedisConfig struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	SnapshotTTLSec int    `mapstructure:"snapshot_ttl_sec"`
	ChartTTLSec    int    `mapstructure:"chart_ttl_sec"`
}

func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c UpstreamConfig) RetryMaxElapsed() time.Duration {
	return time.Duration(c.RetryMaxElapsedSec) * time.Second
}

func (c PollerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

func (c PollerConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func (c RedisConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSec) * time.Second
}

func (c RedisConfig) ChartTTL() time.Duration {
	return time.Duration(c.ChartTTLSec) * time.Second
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env file into System Environment (if it exists) so variables
	// like APP_PORT are available as real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", ":8000")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("upstream.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("upstream.timeout_sec", 5)
	v.SetDefault("upstream.retry_max_elapsed_sec", 15)

	v.SetDefault("poller.tickers", []string{"HII", "GD", "TXT", "LDOS", "KTOS", "MRCY", "CW", "HEI", "RCAT", "PLTR"})
	v.SetDefault("poller.interval_sec", 5)
	v.SetDefault("poller.fetch_timeout_sec", 10)
	v.SetDefault("poller.max_concurrency", 4)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl_sec", 3600)
	v.SetDefault("redis.chart_ttl_sec", 300)

	// Map dot-notation to underscores (e.g., "app.port" -> "APP_PORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit binding is required for Viper to map flat env vars
	// (POLLER_TICKERS) onto nested struct keys
	bindEnv(v, "app.port", "app.env", "app.cors_origins")
	bindEnv(v, "upstream.base_url", "upstream.timeout_sec", "upstream.retry_max_elapsed_sec")
	bindEnv(v, "poller.tickers", "poller.interval_sec", "poller.fetch_timeout_sec", "poller.max_concurrency")
	bindEnv(v, "redis.addr", "redis.password", "redis.db", "redis.snapshot_ttl_sec", "redis.chart_ttl_sec")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	if len(cfg.Poller.Tickers) == 0 {
		return nil, fmt.Errorf("poller tickers cannot be empty")
	}
	if cfg.Poller.IntervalSec <= 0 {
		return nil, fmt.Errorf("poller interval must be positive")
	}
	for i, t := range cfg.Poller.Tickers {
		cfg.Poller.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
