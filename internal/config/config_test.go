package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, ":8081", cfg.Server.HTTPAddr)
	assert.Equal(t, 4, cfg.Collector.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Collector.InitialBackoff)
	assert.Equal(t, 20*time.Second, cfg.Collector.Timeout)
	assert.Equal(t, []string{"JPY"}, cfg.Collector.FxTargets)

	tol, err := cfg.Tolerance()
	require.NoError(t, err)
	assert.Equal(t, "0.000001", tol.String())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  dsn: postgres://localhost/mond
collector:
  tickers: [VTI, "EMAXIS=2559.T"]
  initial_backoff: 500ms
`), 0o600))

	t.Setenv("MOND_LOG_LEVEL", "debug")
	t.Setenv("MOND_COLLECTOR_FX_BASES", "USD,EUR")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/mond", cfg.Database.DSN)
	assert.Equal(t, []string{"VTI", "EMAXIS=2559.T"}, cfg.Collector.Tickers)
	assert.Equal(t, 500*time.Millisecond, cfg.Collector.InitialBackoff)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"USD", "EUR"}, cfg.Collector.FxBases)
	assert.Equal(t, "secret", cfg.Summary.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml")

	assert.ErrorContains(t, err, "failed to read config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:    DatabaseConfig{Driver: DriverSQLite, DSN: "file::memory:"},
			Consistency: ConsistencyConfig{Tolerance: "0.000001"},
			Collector:   CollectorConfig{MaxAttempts: 4, LookbackDays: 7},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "empty dsn", mutate: func(c *Config) { c.Database.DSN = " " }, wantErr: "database.dsn"},
		{name: "bad tolerance", mutate: func(c *Config) { c.Consistency.Tolerance = "tiny" }, wantErr: "not a number"},
		{name: "zero tolerance", mutate: func(c *Config) { c.Consistency.Tolerance = "0" }, wantErr: "must be positive"},
		{name: "no attempts", mutate: func(c *Config) { c.Collector.MaxAttempts = 0 }, wantErr: "max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
