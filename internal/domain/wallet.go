package domain

import "github.com/shopspring/decimal"

// Wallet is the per-venue balance and fee capability the trading core
// consumes. The core never constructs or destroys wallets; it only reads
// balances and fees and moves funds through Withdraw/Deposit. Fees are
// treated as static within a tick.
type Wallet interface {
	// Balance returns the amount of currency held at the venue.
	Balance(currency string) decimal.Decimal
	// TradeFee returns the venue's trade fee as a fraction of notional.
	TradeFee() decimal.Decimal
	// WithdrawalFee returns the venue's fixed withdrawal fee for currency.
	WithdrawalFee(currency string) decimal.Decimal
	// Withdraw removes amount of currency from the venue, charging the
	// withdrawal fee on top.
	Withdraw(amount decimal.Decimal, currency string)
	// Deposit adds amount of currency to the venue.
	Deposit(amount decimal.Decimal, currency string)
}
