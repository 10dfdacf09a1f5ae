package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "parquet", cfg.SaveFormat)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "data", cfg.Storage.LocalRoot)
	assert.Equal(t, "stock-trades-platform", cfg.Storage.S3.Prefix)
	assert.Equal(t, "config/tickers.json", cfg.Tickers.File)
	assert.Equal(t, 5*time.Minute, cfg.Bars.Interval)
	assert.Equal(t, 10*time.Minute, cfg.LockTTL)
	assert.Equal(t, 200, cfg.SimulateOptions().TradesPerSymbol)
	assert.Equal(t, 30*time.Minute, cfg.SimulateOptions().MinutesBack)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("PROFILE", "dev")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "trades")
	t.Setenv("STORAGE_S3_FORCE_PATH_STYLE", "true")
	t.Setenv("SIMULATOR_SEED", "42")
	t.Setenv("BARS_INTERVAL", "1m")

	cfg, err := loadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.SaveFormat)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "trades", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.ForcePathStyle)
	assert.EqualValues(t, 42, cfg.Simulator.Seed)
	assert.Equal(t, time.Minute, cfg.Bars.Interval)

	t.Setenv("SAVE_FORMAT", "JSON")
	cfg, err = loadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.SaveFormat)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
storage:
  local_root: /tmp/stock-data
simulator:
  trades_per_symbol: 50
  base_prices:
    NVDA: 900
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/stock-data", cfg.Storage.LocalRoot)
	assert.Equal(t, 50, cfg.Simulator.TradesPerSymbol)

	sim, err := ProvideSimulator(cfg)
	require.NoError(t, err)
	assert.NotNil(t, sim)
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]string{
		"format":    {"SAVE_FORMAT": "avro"},
		"backend":   {"STORAGE_BACKEND": "gcs"},
		"s3 bucket": {"STORAGE_BACKEND": "s3"},
		"redis":     {"TICKERS_STORE": "redis"},
		"postgres":  {"MANIFEST_BACKEND": "postgres"},
		"discovery": {"MANIFEST_DISCOVERY": "manifest", "MANIFEST_BACKEND": "none"},
		"interval":  {"BARS_INTERVAL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(viper.New())
			assert.Error(t, err)
		})
	}
}
