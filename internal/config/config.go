// Package config loads the server configuration from the environment.
//
// Every setting has a TASKLIST_ prefix and a sensible default except the JWT
// signing secret, which must be provided. Config is read once in main and
// passed down explicitly; nothing else in the tree calls os.Getenv.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// minJWTSecretLength mirrors the check in auth.NewTokenService so a bad secret
// is reported as a config error before anything is opened.
const minJWTSecretLength = 16

// Config is the full set of server settings.
type Config struct {
	Port     int        `env:"TASKLIST_PORT" envDefault:"8080"`
	DBPath   string     `env:"TASKLIST_DB_PATH" envDefault:"data/tasklist.db"`
	LogLevel slog.Level `env:"TASKLIST_LOG_LEVEL" envDefault:"info"`

	JWTSecret  string `env:"TASKLIST_JWT_SECRET,required"`
	BcryptCost int    `env:"TASKLIST_BCRYPT_COST" envDefault:"12"`

	// GitHub sign-in is registered only when both id and secret are set.
	GitHubClientID     string `env:"TASKLIST_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"TASKLIST_GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"TASKLIST_GITHUB_CALLBACK_URL"`

	// OTelEndpoint is an OTLP/HTTP URL. Empty disables tracing.
	OTelEndpoint string `env:"TASKLIST_OTEL_ENDPOINT"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if len(cfg.JWTSecret) < minJWTSecretLength {
		return Config{}, fmt.Errorf("config: TASKLIST_JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: TASKLIST_PORT out of range: %d", cfg.Port)
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}

// GitHubEnabled reports whether the optional GitHub sign-in is configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}
