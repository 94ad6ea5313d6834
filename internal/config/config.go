package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	App     AppConfig     `envPrefix:"APP_"`
	Storage StorageConfig `envPrefix:"STORAGE_"`
	Seed    SeedConfig    `envPrefix:"SEED_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"ohlcv-service"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// StorageConfig represents the event store configuration.
type StorageConfig struct {
	DataDir string `env:"DATA_DIR" envDefault:"data"`
}

// SeedConfig controls demo-data seeding at startup.
type SeedConfig struct {
	Enabled        bool     `env:"ENABLED" envDefault:"false"`
	Symbols        []string `env:"SYMBOLS" envSeparator:"," envDefault:"AAPL,MSFT"`
	HistoryMinutes int      `env:"HISTORY_MINUTES" envDefault:"60"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
