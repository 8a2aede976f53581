// Package trading implements the arbitrage core: the opportunity scanner
// (Trader), the per-trade settlement state machine (CrossTrade), and the tick
// loop that drives both (Runner). The core is single-threaded and
// cooperative; everything runs on the Runner's tick goroutine.
package trading

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/book"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/clock"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

// Trader scans two venue books for profitable crossings on the configured
// pair and spawns a CrossTrade for each one found. Venues are addressed by
// index 0/1 throughout.
type Trader struct {
	tradedCurrency string
	baseCurrency   string
	transfers      TransferTimes
	clk            clock.Clock
	logger         *slog.Logger
}

// NewTrader creates a scanner for the tradedCurrency/baseCurrency pair.
func NewTrader(tradedCurrency, baseCurrency string, transfers TransferTimes, clk clock.Clock, logger *slog.Logger) *Trader {
	return &Trader{
		tradedCurrency: tradedCurrency,
		baseCurrency:   baseCurrency,
		transfers:      transfers,
		clk:            clk,
		logger:         logger.With(slog.String("component", "trader")),
	}
}

// Step runs one scan over both directions and returns the trades spawned this
// call, each already advanced through its buy phase (which consumed source
// ask liquidity). Trades that aborted during that first advance are not
// returned. The result is empty when no profitable crossing exists.
func (t *Trader) Step(books [2]*book.OrderBook, wallets [2]domain.Wallet) []*CrossTrade {
	spawned := t.scan(books, wallets, 0, 1)
	spawned = append(spawned, t.scan(books, wallets, 1, 0)...)
	return spawned
}

// scan greedily opens trades buying at src and selling at dst while doing so
// is profitable after fees. Each spawned trade's first step consumes the best
// ask at src, so best-of-book is re-read every iteration.
func (t *Trader) scan(books [2]*book.OrderBook, wallets [2]domain.Wallet, src, dst int) []*CrossTrade {
	var spawned []*CrossTrade
	for {
		ask, okAsk := books[src].BestAsk()
		bid, okBid := books[dst].BestBid()
		if !okAsk || !okBid {
			// An empty side is the end of opportunity this tick, not an error.
			break
		}

		quantity := decimal.Min(ask.Quantity, bid.Quantity)

		// Buy side pays the trade fee on notional plus both withdrawal fees;
		// sell side pays the trade fee on proceeds only. The traded-currency
		// withdrawal fee is charged in traded units, so it is priced at the
		// ask to land in base-currency terms.
		cost := ask.Price.Mul(one.Add(wallets[src].TradeFee())).Mul(quantity).
			Add(ask.Price.Mul(wallets[src].WithdrawalFee(t.tradedCurrency))).
			Add(wallets[src].WithdrawalFee(t.baseCurrency))
		proceeds := bid.Price.Mul(one.Sub(wallets[dst].TradeFee())).Mul(quantity)

		if !cost.LessThan(proceeds) {
			break
		}

		t.logger.Debug("crossing detected",
			slog.Int("src", src),
			slog.Int("dst", dst),
			slog.String("ask", ask.Price.String()),
			slog.String("bid", bid.Price.String()),
			slog.String("quantity", quantity.String()),
			slog.String("cost", cost.String()),
			slog.String("proceeds", proceeds.String()),
		)

		trade := NewCrossTrade(src, dst, t.tradedCurrency, t.baseCurrency, t.transfers, t.clk, t.logger)
		if trade.Step(books, wallets) {
			// The trade aborted before consuming any liquidity, so the same
			// crossing would respawn forever. Stop scanning this direction.
			break
		}
		spawned = append(spawned, trade)
	}
	return spawned
}
