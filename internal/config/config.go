package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/santelink/santelink/internal/platform/workflow"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	SaveLatency      time.Duration `mapstructure:"SAVE_LATENCY"`
	SaveTimeout      time.Duration `mapstructure:"SAVE_TIMEOUT"`
	SaveMaxAttempts  int           `mapstructure:"SAVE_MAX_ATTEMPTS"`
	SaveRetryBackoff time.Duration `mapstructure:"SAVE_RETRY_BACKOFF"`

	SeedDemoData bool `mapstructure:"SEED_DEMO_DATA"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT", "REQUEST_TIMEOUT",
	"SAVE_LATENCY", "SAVE_TIMEOUT", "SAVE_MAX_ATTEMPTS", "SAVE_RETRY_BACKOFF",
	"SEED_DEMO_DATA",
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. An empty DATABASE_URL selects in-memory storage.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SAVE_LATENCY", "0s")
	v.SetDefault("SAVE_TIMEOUT", "5s")
	v.SetDefault("SAVE_MAX_ATTEMPTS", 3)
	v.SetDefault("SAVE_RETRY_BACKOFF", "100ms")
	v.SetDefault("SEED_DEMO_DATA", false)

	// Bind explicitly so Unmarshal sees variables that have no default.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UsesMemoryStore reports whether records are kept in process memory.
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseURL == ""
}

// Level is the zerolog level named by LOG_LEVEL, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SavePolicy is the persistence policy shared by every save workflow.
func (c *Config) SavePolicy() workflow.Policy {
	return workflow.Policy{
		Latency:     c.SaveLatency,
		Timeout:     c.SaveTimeout,
		MaxAttempts: c.SaveMaxAttempts,
		Backoff:     c.SaveRetryBackoff,
	}
}

// Validate checks that the configuration is safe to run. Outside
// development a signing key is required, because development mode is the
// only one that lets unauthenticated requests through.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if c.SaveMaxAttempts < 1 {
		return fmt.Errorf("SAVE_MAX_ATTEMPTS must be at least 1, got %d", c.SaveMaxAttempts)
	}
	for name, d := range map[string]time.Duration{
		"REQUEST_TIMEOUT":    c.RequestTimeout,
		"SAVE_LATENCY":       c.SaveLatency,
		"SAVE_TIMEOUT":       c.SaveTimeout,
		"SAVE_RETRY_BACKOFF": c.SaveRetryBackoff,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
