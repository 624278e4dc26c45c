// Package config loads server configuration from the environment. Every
// variable is prefixed DOORMAN_; command-line flags may override the
// loaded values.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	Port    int    `env:"PORT" envDefault:"8443"`
	DataDir string `env:"DATA_DIR" envDefault:"./data"`
	TLSCert string `env:"TLS_CERT"`
	TLSKey  string `env:"TLS_KEY"`

	// PostgresDSN switches account storage from the embedded bbolt file
	// to Postgres when set.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Issuer is the label authenticator apps show for enrolled accounts.
	Issuer string `env:"ISSUER" envDefault:"Doorman"`

	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"30m"`

	// HashConcurrency bounds concurrent Argon2id derivations.
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"4"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from DOORMAN_-prefixed environment variables.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "DOORMAN_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.HashConcurrency <= 0 {
		return nil, fmt.Errorf("invalid hash concurrency %d", cfg.HashConcurrency)
	}
	return &cfg, nil
}
