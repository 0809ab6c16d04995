package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string  `mapstructure:"PORT"`
	Env             string  `mapstructure:"ENV"`
	DatabaseURL     string  `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32   `mapstructure:"DB_MIN_CONNS"`
	RedisURL        string  `mapstructure:"REDIS_URL"`
	TerminologyURL  string  `mapstructure:"TERMINOLOGY_URL"`
	MapCacheDriver  string  `mapstructure:"MAPCACHE_DRIVER"`
	MapCachePath    string  `mapstructure:"MAPCACHE_PATH"`
	SchemaFile      string  `mapstructure:"SCHEMA_FILE"`
	DefaultLanguage string  `mapstructure:"DEFAULT_LANGUAGE"`
	RequestTimeout  string  `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit       string  `mapstructure:"BODY_LIMIT"`
	RateLimitRPS    float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int     `mapstructure:"RATE_LIMIT_BURST"`
}

// Map cache drivers.
const (
	MapCacheMemory = "memory"
	MapCacheSQLite = "sqlite"
	MapCacheRedis  = "redis"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MAPCACHE_DRIVER", MapCacheMemory)
	v.SetDefault("DEFAULT_LANGUAGE", "en")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "10M")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("TERMINOLOGY_URL")
	v.BindEnv("MAPCACHE_DRIVER")
	v.BindEnv("MAPCACHE_PATH")
	v.BindEnv("SCHEMA_FILE")
	v.BindEnv("DEFAULT_LANGUAGE")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is runnable. The document map
// cache and the terminology catalogue both degrade gracefully, so only
// internally inconsistent settings are rejected.
func (c *Config) Validate() error {
	switch c.MapCacheDriver {
	case MapCacheMemory:
	case MapCacheSQLite:
		if c.MapCachePath == "" {
			return fmt.Errorf("MAPCACHE_PATH is required when MAPCACHE_DRIVER is %q", MapCacheSQLite)
		}
	case MapCacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when MAPCACHE_DRIVER is %q", MapCacheRedis)
		}
	default:
		return fmt.Errorf("MAPCACHE_DRIVER must be %q, %q, or %q, got %q",
			MapCacheMemory, MapCacheSQLite, MapCacheRedis, c.MapCacheDriver)
	}

	if c.TerminologyURL != "" && !strings.HasPrefix(c.TerminologyURL, "http") {
		return fmt.Errorf("TERMINOLOGY_URL must be an http(s) URL, got %q", c.TerminologyURL)
	}

	if c.DefaultLanguage == "" {
		return fmt.Errorf("DEFAULT_LANGUAGE must not be empty")
	}

	return nil
}
