package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                  string   `mapstructure:"PORT"`
	Env                   string   `mapstructure:"ENV"`
	DatabaseURL           string   `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32    `mapstructure:"DB_MIN_CONNS"`
	RedisAddr             string   `mapstructure:"REDIS_ADDR"`
	CORSOrigins           []string `mapstructure:"CORS_ORIGINS"`
	AutosaveDebounceMs    int      `mapstructure:"AUTOSAVE_DEBOUNCE_MS"`
	ReclassifyIntervalSec int      `mapstructure:"RECLASSIFY_INTERVAL_SEC"`
	OncallWebhookURL      string   `mapstructure:"ONCALL_WEBHOOK_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTOSAVE_DEBOUNCE_MS", 3000)
	v.SetDefault("RECLASSIFY_INTERVAL_SEC", 60)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_ADDR")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTOSAVE_DEBOUNCE_MS")
	v.BindEnv("RECLASSIFY_INTERVAL_SEC")
	v.BindEnv("ONCALL_WEBHOOK_URL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks the tunables that would otherwise fail in confusing ways
// at runtime.
func (c *Config) Validate() error {
	if c.AutosaveDebounceMs <= 0 {
		return fmt.Errorf("AUTOSAVE_DEBOUNCE_MS must be positive, got %d", c.AutosaveDebounceMs)
	}
	if c.ReclassifyIntervalSec <= 0 {
		return fmt.Errorf("RECLASSIFY_INTERVAL_SEC must be positive, got %d", c.ReclassifyIntervalSec)
	}
	return nil
}
