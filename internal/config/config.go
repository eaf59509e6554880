package config

import (
	"fmt"
	"os"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment
// with optional .env overrides for local development.
type Config struct {
	// FACEIT application credentials
	FaceitClientID     string `env:"FACEIT_CLIENT_ID"`
	FaceitClientSecret string `env:"FACEIT_CLIENT_SECRET"`
	RedirectURI        string `env:"REDIRECT_URI"`

	// SessionSecret signs the browser cookie
	SessionSecret string `env:"SESSION_SECRET"`

	// Session store: exactly one of these must be set. Redis is
	// preferred; Postgres is the fallback.
	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Provider endpoint overrides, mainly for tests
	AuthURL     string `env:"FACEIT_AUTH_URL"`
	TokenURL    string `env:"FACEIT_TOKEN_URL"`
	UserInfoURL string `env:"FACEIT_USERINFO_URL"`
	APIBaseURL  string `env:"FACEIT_API_BASE_URL"`

	// Server
	Host        string `env:"HOST" default:"0.0.0.0"`
	Port        int    `env:"PORT" default:"8080"`
	Environment string `env:"ENVIRONMENT" default:"development"`
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every mandatory value is present. A missing
// value is fatal at startup rather than a runtime surprise.
func (c *Config) Validate() error {
	var missing []string
	for name, value := range map[string]string{
		"FACEIT_CLIENT_ID":     c.FaceitClientID,
		"FACEIT_CLIENT_SECRET": c.FaceitClientSecret,
		"REDIRECT_URI":         c.RedirectURI,
		"SESSION_SECRET":       c.SessionSecret,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}

	if c.RedisURL == "" && c.DatabaseURL == "" {
		return fmt.Errorf("either REDIS_URL or DATABASE_URL must be set")
	}
	return nil
}

// IsProduction reports whether the service runs with production
// hardening (secure cookies).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
