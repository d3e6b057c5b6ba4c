// Package config loads mond configuration from an optional YAML file, a .env file and MOND_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Server      ServerConfig      `mapstructure:"server"`
	Consistency ConsistencyConfig `mapstructure:"consistency"`
	Collector   CollectorConfig   `mapstructure:"collector"`
	Yahoo       YahooConfig       `mapstructure:"yahoo"`
	Summary     SummaryConfig     `mapstructure:"summary"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	GRPCAddr    string   `mapstructure:"grpc_addr"`
	HTTPAddr    string   `mapstructure:"http_addr"`
	APIToken    string   `mapstructure:"api_token"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type ConsistencyConfig struct {
	Tolerance string `mapstructure:"tolerance"`
}

type CollectorConfig struct {
	Schedule       string        `mapstructure:"schedule"` // cron spec; empty disables scheduled runs
	BaseCurrency   string        `mapstructure:"base_currency"`
	FxTargets      []string      `mapstructure:"fx_targets"`
	FxBases        []string      `mapstructure:"fx_bases"`
	Tickers        []string      `mapstructure:"tickers"` // TICKER or TICKER=SYMBOL
	LookbackDays   int           `mapstructure:"lookback_days"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type YahooConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type SummaryConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
}

// Load reads configuration. An explicit path must exist; otherwise ./mond.yaml is used when present.
// Environment variables take precedence over the file, e.g. MOND_DATABASE_DSN.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MOND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("summary.api_key", "MOND_SUMMARY_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind summary api key: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("mond")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "file:mond.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")

	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.http_addr", ":8081")
	v.SetDefault("server.api_token", "dev-token")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("consistency.tolerance", "0.000001")

	v.SetDefault("collector.schedule", "")
	v.SetDefault("collector.base_currency", "USD")
	v.SetDefault("collector.fx_targets", []string{"JPY"})
	v.SetDefault("collector.fx_bases", []string{"USD"})
	v.SetDefault("collector.tickers", []string{})
	v.SetDefault("collector.lookback_days", 7)
	v.SetDefault("collector.max_attempts", 4)
	v.SetDefault("collector.initial_backoff", 2*time.Second)
	v.SetDefault("collector.timeout", 20*time.Second)

	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")

	v.SetDefault("summary.api_key", "")
	v.SetDefault("summary.model", "gemini-2.5-flash")
	v.SetDefault("summary.language", "Japanese")
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if _, err := c.Tolerance(); err != nil {
		return err
	}
	if c.Collector.MaxAttempts < 1 {
		return fmt.Errorf("collector.max_attempts must be at least 1, got %d", c.Collector.MaxAttempts)
	}
	if c.Collector.LookbackDays < 1 {
		return fmt.Errorf("collector.lookback_days must be at least 1, got %d", c.Collector.LookbackDays)
	}
	return nil
}

// Tolerance parses consistency.tolerance
func (c *Config) Tolerance() (decimal.Decimal, error) {
	tol, err := decimal.NewFromString(strings.TrimSpace(c.Consistency.Tolerance))
	if err != nil {
		return decimal.Zero, fmt.Errorf("consistency.tolerance %q is not a number: %w", c.Consistency.Tolerance, err)
	}
	if !tol.IsPositive() {
		return decimal.Zero, fmt.Errorf("consistency.tolerance must be positive, got %s", tol)
	}
	return tol, nil
}
