// Package config содержит логику чтения конфигурации сервиса.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmeshcher/beauty-storefront/internal/currency"
)

const (
	defaultRunAddress    = "localhost:8080"
	defaultWindowDays    = 7
	defaultStoreTimezone = "Africa/Casablanca"
	defaultSyncInterval  = 30 * time.Second
	maxWindowDays        = 365
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress    string        `env:"RUN_ADDRESS"`
	DatabaseURI   string        `env:"DATABASE_URI"`
	SourceAddress string        `env:"SOURCE_ADDRESS"`
	AdminCurrency string        `env:"ADMIN_CURRENCY"`
	WindowDays    int           `env:"DASHBOARD_WINDOW_DAYS"`
	StoreTimezone string        `env:"STORE_TIMEZONE"`
	SyncInterval  time.Duration `env:"SYNC_INTERVAL"`

	// Location заполняется из StoreTimezone при разборе.
	Location *time.Location `env:"-"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения, в том числе загруженные из файла .env, имеют приоритет над флагами.
func Parse() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.SourceAddress, "s", "", "document source address, empty disables sync")
	flag.StringVar(&cfg.AdminCurrency, "c", string(currency.Base), "default admin display currency")
	flag.IntVar(&cfg.WindowDays, "w", defaultWindowDays, "default dashboard window in days")
	flag.StringVar(&cfg.StoreTimezone, "z", defaultStoreTimezone, "store time zone for day boundaries")
	flag.DurationVar(&cfg.SyncInterval, "i", defaultSyncInterval, "document source sync interval")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.SourceAddress != "" {
		cfg.SourceAddress = fromEnv.SourceAddress
	}
	if fromEnv.AdminCurrency != "" {
		cfg.AdminCurrency = fromEnv.AdminCurrency
	}
	if fromEnv.WindowDays != 0 {
		cfg.WindowDays = fromEnv.WindowDays
	}
	if fromEnv.StoreTimezone != "" {
		cfg.StoreTimezone = fromEnv.StoreTimezone
	}
	if fromEnv.SyncInterval != 0 {
		cfg.SyncInterval = fromEnv.SyncInterval
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	code, ok := currency.Parse(c.AdminCurrency)
	if !ok {
		return fmt.Errorf("unsupported admin currency %q", c.AdminCurrency)
	}
	c.AdminCurrency = string(code)

	if c.WindowDays < 1 || c.WindowDays > maxWindowDays {
		return fmt.Errorf("dashboard window must be between 1 and %d days, got %d", maxWindowDays, c.WindowDays)
	}

	if c.SyncInterval <= 0 {
		return errors.New("sync interval must be positive")
	}

	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return fmt.Errorf("load store timezone: %w", err)
	}
	c.Location = loc

	return nil
}
