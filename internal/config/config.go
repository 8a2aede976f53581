// Package config defines the top-level configuration for the arbitrage
// trader and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBTRADER_* environment
// variables.
type Config struct {
	Pair      PairConfig    `toml:"pair"`
	Venues    []VenueConfig `toml:"venues"`
	Execution ExecConfig    `toml:"execution"`
	Redis     RedisConfig   `toml:"redis"`
	Notify    NotifyConfig  `toml:"notify"`
	Mode      string        `toml:"mode"`
	LogLevel  string        `toml:"log_level"`
}

// PairConfig names the asset pair being arbitraged.
type PairConfig struct {
	TradedCurrency string `toml:"traded_currency"`
	BaseCurrency   string `toml:"base_currency"`
}

// VenueConfig describes one of the two trading venues. Exactly two venue
// blocks must be configured; they are addressed by position (venue 0, venue 1)
// everywhere in the trading core.
type VenueConfig struct {
	// Name selects the depth client: "binance" or "kucoin".
	Name string `toml:"name"`
	// Symbol is the pair in the venue's own notation, e.g. "XNOUSDT" on
	// Binance, "XNO-USDT" on KuCoin.
	Symbol string `toml:"symbol"`
	// APIURL overrides the venue's REST endpoint; empty selects production.
	APIURL string `toml:"api_url"`
	// WSURL overrides the venue's websocket endpoint; empty selects
	// production.
	WSURL string `toml:"ws_url"`
	// UseWebsocket streams depth instead of REST polling where the venue
	// supports it.
	UseWebsocket bool `toml:"use_websocket"`
	// TradeFee is the venue's trade fee as a fraction of notional.
	TradeFee float64 `toml:"trade_fee"`
	// StartingBalance is the simulated wallet's base-currency float.
	StartingBalance float64 `toml:"starting_balance"`
	// WithdrawalFees maps currency to the venue's fixed withdrawal fee.
	WithdrawalFees map[string]float64 `toml:"withdrawal_fees"`
}

// ExecConfig holds the timing parameters of the tick loop and settlement
// model.
type ExecConfig struct {
	TickIntervalMs  int `toml:"tick_interval_ms"`
	PollIntervalMs  int `toml:"poll_interval_ms"`
	RetryBackoffMs  int `toml:"retry_backoff_ms"`
	StatusIntervalS int `toml:"status_interval_s"`
	TradedTransferS int `toml:"traded_transfer_time_s"`
	BaseTransferS   int `toml:"base_transfer_time_s"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled the trader runs without the quote cache and trade event bus.
type RedisConfig struct {
	Enabled      bool   `toml:"enabled"`
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	MaxRetries   int    `toml:"max_retries"`
	TLSEnabled   bool   `toml:"tls_enabled"`
	QuoteTTLS    int    `toml:"quote_ttl_s"`
	StreamMaxLen int    `toml:"stream_max_len"`
}

// NotifyConfig holds notification channel credentials and the event filter.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns the built-in configuration, tuned to the reference
// XNO/USDT deployment across Binance and KuCoin.
func Defaults() Config {
	return Config{
		Pair: PairConfig{
			TradedCurrency: "XNO",
			BaseCurrency:   "USDT",
		},
		Venues: []VenueConfig{
			{
				Name:            "binance",
				Symbol:          "XNOUSDT",
				TradeFee:        0.001,
				StartingBalance: 1000,
				WithdrawalFees:  map[string]float64{"XNO": 0.028, "USDT": 1.0},
			},
			{
				Name:            "kucoin",
				Symbol:          "XNO-USDT",
				TradeFee:        0.001,
				StartingBalance: 1000,
				WithdrawalFees:  map[string]float64{"XNO": 0.02, "USDT": 1.0},
			},
		},
		Execution: ExecConfig{
			TickIntervalMs:  50,
			PollIntervalMs:  20000,
			RetryBackoffMs:  2000,
			StatusIntervalS: 60,
			TradedTransferS: 1,
			BaseTransferS:   360,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     20,
			MaxRetries:   3,
			QuoteTTLS:    60,
			StreamMaxLen: 10000,
		},
		Mode:     "simulate",
		LogLevel: "info",
	}
}

// Validate checks the configuration for internal consistency and returns a
// combined error listing every violation.
func (c *Config) Validate() error {
	var errs []string

	if c.Pair.TradedCurrency == "" {
		errs = append(errs, "pair: traded_currency must not be empty")
	}
	if c.Pair.BaseCurrency == "" {
		errs = append(errs, "pair: base_currency must not be empty")
	}
	if c.Pair.TradedCurrency == c.Pair.BaseCurrency {
		errs = append(errs, "pair: traded_currency and base_currency must differ")
	}

	if len(c.Venues) != 2 {
		errs = append(errs, fmt.Sprintf("venues: exactly 2 venues required, got %d", len(c.Venues)))
	}
	for i, v := range c.Venues {
		switch v.Name {
		case "binance", "kucoin":
		default:
			errs = append(errs, fmt.Sprintf("venues[%d]: unsupported venue %q", i, v.Name))
		}
		if v.Symbol == "" {
			errs = append(errs, fmt.Sprintf("venues[%d]: symbol must not be empty", i))
		}
		if v.TradeFee < 0 || v.TradeFee >= 1 {
			errs = append(errs, fmt.Sprintf("venues[%d]: trade_fee must be in [0, 1)", i))
		}
		if v.StartingBalance < 0 {
			errs = append(errs, fmt.Sprintf("venues[%d]: starting_balance must be >= 0", i))
		}
		for cur, fee := range v.WithdrawalFees {
			if fee < 0 {
				errs = append(errs, fmt.Sprintf("venues[%d]: withdrawal fee for %s must be >= 0", i, cur))
			}
		}
	}

	if c.Execution.TickIntervalMs <= 0 {
		errs = append(errs, "execution: tick_interval_ms must be > 0")
	}
	if c.Execution.PollIntervalMs <= 0 {
		errs = append(errs, "execution: poll_interval_ms must be > 0")
	}
	if c.Execution.RetryBackoffMs <= 0 {
		errs = append(errs, "execution: retry_backoff_ms must be > 0")
	}
	if c.Execution.TradedTransferS < 0 || c.Execution.BaseTransferS < 0 {
		errs = append(errs, "execution: transfer times must be >= 0")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	switch c.Mode {
	case "simulate", "monitor":
	default:
		errs = append(errs, fmt.Sprintf("mode: unsupported mode %q", c.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
