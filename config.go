package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded by a .env file.
type Config struct {
	Address            string `env:"ADDRESS" envDefault:":8084"`
	DatabaseURL        string `env:"DATABASE_URL" envDefault:"host=localhost port=5432 user=postgres dbname=production_report sslmode=disable"`
	SessionSecret      string `env:"SESSION_SECRET"`
	SessionIdleMinutes int    `env:"SESSION_IDLE_MINUTES" envDefault:"5"`
	SecureCookies      bool   `env:"SECURE_COOKIES" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`   // text, json
	LogOutput string `env:"LOG_OUTPUT" envDefault:"stdout"` // stdout, file, both
	LogFile   string `env:"LOG_FILE" envDefault:"logs/production_report.log"`

	LedgerURL            string `env:"LEDGER_URL" envDefault:"http://localhost:8090"`
	LedgerTimeoutSeconds int    `env:"LEDGER_TIMEOUT_SECONDS" envDefault:"15"`
	LedgerRetryDelayMs   int    `env:"LEDGER_RETRY_DELAY_MS" envDefault:"2000"`

	// Optional overrides of the embedded import layouts and the built-in
	// UI preferences.
	LayoutsFile    string `env:"IMPORT_LAYOUTS_FILE"`
	UIDefaultsFile string `env:"UI_DEFAULTS_FILE"`
}

// loadConfig reads the given env files, then the process environment.
// A missing .env file is not an error.
func loadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.SessionIdleMinutes <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_MINUTES must be positive, got %d", cfg.SessionIdleMinutes)
	}
	return cfg, nil
}

func (c *Config) sessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c *Config) ledgerTimeout() time.Duration {
	return time.Duration(c.LedgerTimeoutSeconds) * time.Second
}

func (c *Config) ledgerRetryDelay() time.Duration {
	return time.Duration(c.LedgerRetryDelayMs) * time.Millisecond
}
