package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "monitor"
log_level = "debug"

[pair]
traded_currency = "BTC"
base_currency = "EUR"

[execution]
tick_interval_ms = 100

[[venues]]
name = "binance"
symbol = "BTCEUR"
trade_fee = 0.002
starting_balance = 500

[venues.withdrawal_fees]
BTC = 0.0005

[[venues]]
name = "kucoin"
symbol = "BTC-EUR"
trade_fee = 0.001
starting_balance = 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "BTC", cfg.Pair.TradedCurrency)
	assert.Equal(t, "EUR", cfg.Pair.BaseCurrency)
	assert.Equal(t, 100, cfg.Execution.TickIntervalMs)
	// Untouched defaults survive the merge.
	assert.Equal(t, 20000, cfg.Execution.PollIntervalMs)

	require.Len(t, cfg.Venues, 2)
	assert.Equal(t, "BTCEUR", cfg.Venues[0].Symbol)
	assert.Equal(t, 0.0005, cfg.Venues[0].WithdrawalFees["BTC"])
	assert.Equal(t, 500.0, cfg.Venues[1].StartingBalance)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
mode = "simulate"

[redis]
enabled = false
addr = "filehost:6379"
`)

	t.Setenv("ARBTRADER_MODE", "monitor")
	t.Setenv("ARBTRADER_REDIS_ENABLED", "true")
	t.Setenv("ARBTRADER_REDIS_ADDR", "envhost:6380")
	t.Setenv("ARBTRADER_NOTIFY_EVENTS", "trade_opened, trade_completed")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "monitor", cfg.Mode)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "envhost:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"trade_opened", "trade_completed"}, cfg.Notify.Events)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateReportsEveryViolation(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "yolo"
	cfg.Pair.BaseCurrency = cfg.Pair.TradedCurrency
	cfg.Venues = cfg.Venues[:1]
	cfg.Venues[0].TradeFee = 1.5
	cfg.Execution.TickIntervalMs = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
	assert.Contains(t, err.Error(), "must differ")
	assert.Contains(t, err.Error(), "exactly 2 venues")
	assert.Contains(t, err.Error(), "trade_fee")
	assert.Contains(t, err.Error(), "tick_interval_ms")
}

func TestValidateRejectsUnknownVenue(t *testing.T) {
	cfg := Defaults()
	cfg.Venues[0].Name = "mtgox"
	assert.Error(t, cfg.Validate())
}
