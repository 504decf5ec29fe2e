package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/iho/splitledger/internal/domain"
)

// DefaultEnvFile is read when present. Variables already set in the environment win.
const DefaultEnvFile = ".env"

// Config holds all application configuration.
type Config struct {
	// Remote API
	APIURL          string        `env:"API_URL"          envDefault:"http://localhost:8080/api"`
	AuthURL         string        `env:"AUTH_URL"         envDefault:"http://localhost:8083/api"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT"     envDefault:"15s"`
	HTTPMaxRetries  uint64        `env:"HTTP_MAX_RETRIES" envDefault:"3"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS"   envDefault:"10"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"20"`
	BreakerTimeout  time.Duration `env:"BREAKER_TIMEOUT"  envDefault:"30s"`
	BreakerFailures uint32        `env:"BREAKER_FAILURES" envDefault:"5"`

	// Redis (optional - leave empty to disable caching and the duplicate guard)
	RedisURL        string        `env:"REDIS_URL"        envDefault:""`
	RedisTimeout    time.Duration `env:"REDIS_TIMEOUT"    envDefault:"2s"`
	CacheTTL        time.Duration `env:"CACHE_TTL"        envDefault:"5m"`
	DuplicateWindow time.Duration `env:"DUPLICATE_WINDOW" envDefault:"10s"`

	// Session
	SessionFile string `env:"SESSION_FILE" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Display
	Currency string `env:"CURRENCY" envDefault:"USD"`
}

// Load reads envFiles (DefaultEnvFile when none are given, skipped if absent) and
// then parses configuration from environment variables.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			envFiles = []string{DefaultEnvFile}
		}
	}
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.SessionFile == "" {
		path, err := DefaultSessionFile()
		if err != nil {
			return nil, err
		}
		cfg.SessionFile = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultSessionFile returns the session location under the user's config directory.
func DefaultSessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "splitledger", "session.json"), nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{"API_URL": c.APIURL, "AUTH_URL": c.AuthURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.RateLimitRPS <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive"))
	}
	if c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be at least 1"))
	}
	if err := domain.ValidateCurrency(c.Currency); err != nil {
		errs = append(errs, fmt.Errorf("CURRENCY: %w", err))
	}

	return errors.Join(errs...)
}

// RedisEnabled reports whether a Redis URL is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}
