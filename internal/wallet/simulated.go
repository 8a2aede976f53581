// Package wallet provides the reference wallet implementation used in
// simulation mode. Live-venue wallets implement domain.Wallet against real
// exchange APIs and live outside this repository.
package wallet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

// Simulated is an in-memory wallet with a flat trade fee and fixed
// per-currency withdrawal fees. Balances never go negative; a withdrawal
// larger than the balance drains it to zero.
type Simulated struct {
	balances       map[string]decimal.Decimal
	tradeFee       decimal.Decimal
	withdrawalFees map[string]decimal.Decimal
}

// Config holds the starting state for a simulated wallet.
type Config struct {
	// Balances maps currency to starting amount.
	Balances map[string]decimal.Decimal
	// TradeFee is the fraction of notional charged per trade, e.g. 0.001.
	TradeFee decimal.Decimal
	// WithdrawalFees maps currency to the fixed fee charged on withdrawal.
	WithdrawalFees map[string]decimal.Decimal
}

// NewSimulated creates a simulated wallet from cfg.
func NewSimulated(cfg Config) *Simulated {
	w := &Simulated{
		balances:       make(map[string]decimal.Decimal, len(cfg.Balances)),
		tradeFee:       cfg.TradeFee,
		withdrawalFees: make(map[string]decimal.Decimal, len(cfg.WithdrawalFees)),
	}
	for cur, amt := range cfg.Balances {
		w.balances[cur] = amt
	}
	for cur, fee := range cfg.WithdrawalFees {
		w.withdrawalFees[cur] = fee
	}
	return w
}

// Balance returns the held amount of currency, zero when unknown.
func (w *Simulated) Balance(currency string) decimal.Decimal {
	return w.balances[currency]
}

// TradeFee returns the flat trade fee fraction.
func (w *Simulated) TradeFee() decimal.Decimal { return w.tradeFee }

// WithdrawalFee returns the fixed withdrawal fee for currency, zero when none
// is configured.
func (w *Simulated) WithdrawalFee(currency string) decimal.Decimal {
	return w.withdrawalFees[currency]
}

// Withdraw removes amount plus the currency's withdrawal fee, clamping the
// balance at zero.
func (w *Simulated) Withdraw(amount decimal.Decimal, currency string) {
	remaining := w.balances[currency].Sub(amount).Sub(w.WithdrawalFee(currency))
	if remaining.Sign() < 0 {
		remaining = decimal.Zero
	}
	w.balances[currency] = remaining
}

// Deposit adds amount of currency.
func (w *Simulated) Deposit(amount decimal.Decimal, currency string) {
	w.balances[currency] = w.balances[currency].Add(amount)
}

// String renders all balances in a stable order, for periodic operator output.
func (w *Simulated) String() string {
	currencies := make([]string, 0, len(w.balances))
	for cur := range w.balances {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)

	parts := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		parts = append(parts, fmt.Sprintf("%s: %s", cur, w.balances[cur]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

var _ domain.Wallet = (*Simulated)(nil)
