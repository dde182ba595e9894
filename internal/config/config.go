package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the server.
type Config struct {
	ListenAddr string
	DBPath     string // airport metadata store; empty disables persistence
	TrustProxy bool   // honor X-Forwarded-For / X-Real-IP for client IPs

	Providers ProvidersConfig
	Cascade   CascadeConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Random    RandomConfig
	Log       LogConfig
}

// ProvidersConfig holds per-provider credentials and endpoints. Base URLs
// default to the production endpoints and exist mainly for tests.
type ProvidersConfig struct {
	AeroAPIKey     string
	AeroAPIBaseURL string
	ADSBXKey       string
	ADSBXBaseURL   string
	HexDBBaseURL   string
}

// CascadeConfig bounds each provider call within a resolution.
type CascadeConfig struct {
	Timeout time.Duration
}

// CacheConfig holds status-cache tuning.
type CacheConfig struct {
	StatusTTL time.Duration
}

// WindowConfig is one sliding-window limiter's settings.
type WindowConfig struct {
	Max    int
	Window time.Duration
}

// RateLimitConfig holds the two independently tuned limiters plus the idle
// key sweep interval.
type RateLimitConfig struct {
	Resolve       WindowConfig
	Random        WindowConfig
	SweepInterval time.Duration
}

// RandomConfig is the point-radius query behind the random-aircraft endpoint.
type RandomConfig struct {
	Lat      float64
	Lon      float64
	RadiusNM int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from config file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "airports.db")
	v.SetDefault("trust_proxy", false)
	v.SetDefault("providers.aeroapi_base_url", "")
	v.SetDefault("providers.aeroapi_key", "")
	v.SetDefault("providers.adsbx_base_url", "")
	v.SetDefault("providers.adsbx_key", "")
	v.SetDefault("providers.hexdb_base_url", "")
	v.SetDefault("cascade.timeout_seconds", 5)
	v.SetDefault("cache.status_ttl_seconds", 12)
	v.SetDefault("ratelimit.resolve.max", 30)
	v.SetDefault("ratelimit.resolve.window_seconds", 60)
	v.SetDefault("ratelimit.random.max", 6)
	v.SetDefault("ratelimit.random.window_seconds", 60)
	v.SetDefault("ratelimit.sweep_interval_seconds", 120)
	v.SetDefault("random.lat", 37.6213)
	v.SetDefault("random.lon", -122.379)
	v.SetDefault("random.radius_nm", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/trackmybird")
	v.AddConfigPath(".")

	if configPath := os.Getenv("TRACKMYBIRD_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Config file not found is fine; defaults + env vars still apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TRACKMYBIRD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr: v.GetString("listen_addr"),
		DBPath:     v.GetString("db_path"),
		TrustProxy: v.GetBool("trust_proxy"),
		Providers: ProvidersConfig{
			AeroAPIKey:     v.GetString("providers.aeroapi_key"),
			AeroAPIBaseURL: v.GetString("providers.aeroapi_base_url"),
			ADSBXKey:       v.GetString("providers.adsbx_key"),
			ADSBXBaseURL:   v.GetString("providers.adsbx_base_url"),
			HexDBBaseURL:   v.GetString("providers.hexdb_base_url"),
		},
		Cascade: CascadeConfig{
			Timeout: time.Duration(v.GetInt("cascade.timeout_seconds")) * time.Second,
		},
		Cache: CacheConfig{
			StatusTTL: time.Duration(v.GetInt("cache.status_ttl_seconds")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Resolve: WindowConfig{
				Max:    v.GetInt("ratelimit.resolve.max"),
				Window: time.Duration(v.GetInt("ratelimit.resolve.window_seconds")) * time.Second,
			},
			Random: WindowConfig{
				Max:    v.GetInt("ratelimit.random.max"),
				Window: time.Duration(v.GetInt("ratelimit.random.window_seconds")) * time.Second,
			},
			SweepInterval: time.Duration(v.GetInt("ratelimit.sweep_interval_seconds")) * time.Second,
		},
		Random: RandomConfig{
			Lat:      v.GetFloat64("random.lat"),
			Lon:      v.GetFloat64("random.lon"),
			RadiusNM: v.GetInt("random.radius_nm"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values.
func validate(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}

	if cfg.Cascade.Timeout <= 0 {
		return fmt.Errorf("cascade.timeout_seconds must be greater than 0")
	}

	if cfg.Cache.StatusTTL <= 0 {
		return fmt.Errorf("cache.status_ttl_seconds must be greater than 0")
	}

	for name, w := range map[string]WindowConfig{
		"ratelimit.resolve": cfg.RateLimit.Resolve,
		"ratelimit.random":  cfg.RateLimit.Random,
	} {
		if w.Max <= 0 || w.Window <= 0 {
			return fmt.Errorf("%s max and window must be greater than 0", name)
		}
	}

	if cfg.Random.RadiusNM <= 0 {
		return fmt.Errorf("random.radius_nm must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
