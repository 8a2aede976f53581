package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestWallet() *Simulated {
	return NewSimulated(Config{
		Balances: map[string]decimal.Decimal{
			"USDT": decimal.RequireFromString("1000"),
		},
		TradeFee: decimal.RequireFromString("0.001"),
		WithdrawalFees: map[string]decimal.Decimal{
			"XNO":  decimal.RequireFromString("0.028"),
			"USDT": decimal.RequireFromString("1.0"),
		},
	})
}

func TestBalanceUnknownCurrencyIsZero(t *testing.T) {
	w := newTestWallet()
	assert.True(t, w.Balance("BTC").IsZero())
}

func TestWithdrawChargesFee(t *testing.T) {
	w := newTestWallet()
	w.Withdraw(decimal.RequireFromString("100"), "USDT")
	assert.True(t, w.Balance("USDT").Equal(decimal.RequireFromString("899")))
}

func TestWithdrawClampsAtZero(t *testing.T) {
	w := newTestWallet()
	w.Withdraw(decimal.RequireFromString("5000"), "USDT")
	assert.True(t, w.Balance("USDT").IsZero())
}

func TestDepositAccumulates(t *testing.T) {
	w := newTestWallet()
	w.Deposit(decimal.RequireFromString("2.5"), "XNO")
	w.Deposit(decimal.RequireFromString("1.5"), "XNO")
	assert.True(t, w.Balance("XNO").Equal(decimal.RequireFromString("4")))
}

func TestWithdrawalFeeUnknownCurrencyIsZero(t *testing.T) {
	w := newTestWallet()
	assert.True(t, w.WithdrawalFee("BTC").IsZero())
}

func TestStringIsStable(t *testing.T) {
	w := newTestWallet()
	w.Deposit(decimal.RequireFromString("3"), "XNO")
	assert.Equal(t, "{USDT: 1000 XNO: 3}", w.String())
}
