package trading

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/book"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/clock"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/wallet"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClock() *clock.Simulated {
	return clock.NewSimulated(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func lvl(price, qty string) domain.PriceLevel {
	return domain.PriceLevel{
		Price:    decimal.RequireFromString(price),
		Quantity: decimal.RequireFromString(qty),
	}
}

func testWallet(balance, tradeFee string, withdrawalFees map[string]string) *wallet.Simulated {
	fees := make(map[string]decimal.Decimal, len(withdrawalFees))
	for cur, fee := range withdrawalFees {
		fees[cur] = decimal.RequireFromString(fee)
	}
	return wallet.NewSimulated(wallet.Config{
		Balances: map[string]decimal.Decimal{
			"USDT": decimal.RequireFromString(balance),
		},
		TradeFee:       decimal.RequireFromString(tradeFee),
		WithdrawalFees: fees,
	})
}

func testBooks(srcAsks, dstBids []domain.PriceLevel) [2]*book.OrderBook {
	src := book.New("binance")
	src.Apply(domain.BookSnapshot{Venue: "binance", Asks: srcAsks})
	dst := book.New("kucoin")
	dst.Apply(domain.BookSnapshot{Venue: "kucoin", Bids: dstBids})
	return [2]*book.OrderBook{src, dst}
}

func TestCrossTradeFullLifecycle(t *testing.T) {
	clk := testClock()
	books := testBooks(
		[]domain.PriceLevel{lvl("10.00", "5")},
		[]domain.PriceLevel{lvl("10.20", "3")},
	)
	wallets := [2]domain.Wallet{
		testWallet("1000", "0.001", nil),
		testWallet("0", "0.001", nil),
	}

	trade := NewCrossTrade(0, 1, "XNO", "USDT", DefaultTransferTimes(), clk, testLogger())
	require.Equal(t, StateBuy, trade.State())

	// Buy: quantity capped by the destination bid, cost withdrawn pre-fee,
	// held quantity reduced by the trade fee.
	require.False(t, trade.Step(books, wallets))
	assert.Equal(t, StateTransferOut, trade.State())
	assert.True(t, trade.HeldQuantity().Equal(decimal.RequireFromString("2.997")))
	assert.True(t, wallets[0].Balance("USDT").Equal(decimal.RequireFromString("970")))
	ask, ok := books[0].BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Quantity.Equal(decimal.RequireFromString("2")))

	// Transfer out holds until the traded-currency latency has elapsed.
	require.False(t, trade.Step(books, wallets))
	assert.Equal(t, StateTransferOut, trade.State())
	clk.Advance(time.Second)
	require.False(t, trade.Step(books, wallets))
	assert.Equal(t, StateLiquidate, trade.State())

	// Liquidate: full fill in one pass, sell-side fee on proceeds.
	require.False(t, trade.Step(books, wallets))
	assert.Equal(t, StateTransferBack, trade.State())
	assert.True(t, trade.AmountSold().Equal(decimal.RequireFromString("2.997")))
	assert.True(t, trade.AmountToTransferBack().Equal(decimal.RequireFromString("30.5388306")))
	bid, ok := books[1].BestBid()
	require.True(t, ok)
	assert.True(t, bid.Quantity.Equal(decimal.RequireFromString("0.003")))

	// Transfer back holds until the base-currency latency has elapsed, then
	// deposits the proceeds at the source venue.
	require.False(t, trade.Step(books, wallets))
	clk.Advance(6 * time.Minute)
	require.True(t, trade.Step(books, wallets))
	assert.Equal(t, StateDone, trade.State())
	assert.False(t, trade.Aborted())
	assert.True(t, wallets[0].Balance("USDT").Equal(decimal.RequireFromString("1000.5388306")))
}

func TestCrossTradeAbortsWithoutFunds(t *testing.T) {
	clk := testClock()
	books := testBooks(
		[]domain.PriceLevel{lvl("10.00", "5")},
		[]domain.PriceLevel{lvl("10.20", "3")},
	)
	wallets := [2]domain.Wallet{
		testWallet("0", "0.001", nil),
		testWallet("0", "0.001", nil),
	}

	trade := NewCrossTrade(0, 1, "XNO", "USDT", DefaultTransferTimes(), clk, testLogger())
	require.True(t, trade.Step(books, wallets))
	assert.True(t, trade.Aborted())
	assert.Equal(t, StateDone, trade.State())

	// Nothing was consumed.
	ask, ok := books[0].BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Quantity.Equal(decimal.RequireFromString("5")))
}

func TestCrossTradeAbortsWhenQuoteGone(t *testing.T) {
	clk := testClock()
	books := testBooks(
		[]domain.PriceLevel{lvl("10.00", "5")},
		nil,
	)
	wallets := [2]domain.Wallet{
		testWallet("1000", "0.001", nil),
		testWallet("0", "0.001", nil),
	}

	trade := NewCrossTrade(0, 1, "XNO", "USDT", DefaultTransferTimes(), clk, testLogger())
	require.True(t, trade.Step(books, wallets))
	assert.True(t, trade.Aborted())
}

func TestCrossTradeRetriesPartialFills(t *testing.T) {
	clk := testClock()
	books := testBooks(
		[]domain.PriceLevel{lvl("10.00", "5")},
		[]domain.PriceLevel{lvl("10.20", "1")},
	)
	wallets := [2]domain.Wallet{
		testWallet("1000", "0.001", nil),
		testWallet("0", "0.001", nil),
	}

	trade := NewCrossTrade(0, 1, "XNO", "USDT", DefaultTransferTimes(), clk, testLogger())
	require.False(t, trade.Step(books, wallets))
	assert.True(t, trade.HeldQuantity().Equal(decimal.RequireFromString("0.999")))

	clk.Advance(time.Second)
	require.False(t, trade.Step(books, wallets))
	require.Equal(t, StateLiquidate, trade.State())

	// The bid shrank before the sell leg ran; only part of the position fills.
	books[1].Apply(domain.BookSnapshot{Venue: "kucoin", Bids: []domain.PriceLevel{lvl("10.20", "0.5")}})
	require.False(t, trade.Step(books, wallets))
	assert.Equal(t, StateLiquidate, trade.State())
	assert.True(t, trade.AmountSold().Equal(decimal.RequireFromString("0.5")))

	// The book repopulates; the remainder sells at the new level.
	books[1].Apply(domain.BookSnapshot{Venue: "kucoin", Bids: []domain.PriceLevel{lvl("10.00", "5")}})
	require.False(t, trade.Step(books, wallets))
	assert.Equal(t, StateTransferBack, trade.State())
	assert.True(t, trade.AmountSold().Equal(decimal.RequireFromString("0.999")))
	// 0.5 at 10.20 plus 0.499 at 10.00, each less the 0.001 sell fee.
	assert.True(t, trade.AmountToTransferBack().Equal(decimal.RequireFromString("10.07991")))
}

func TestCrossTradeEvent(t *testing.T) {
	clk := testClock()
	books := testBooks(
		[]domain.PriceLevel{lvl("10.00", "5")},
		[]domain.PriceLevel{lvl("10.20", "3")},
	)
	wallets := [2]domain.Wallet{
		testWallet("1000", "0.001", nil),
		testWallet("0", "0.001", nil),
	}

	trade := NewCrossTrade(0, 1, "XNO", "USDT", DefaultTransferTimes(), clk, testLogger())
	require.False(t, trade.Step(books, wallets))

	ev := trade.Event([2]string{"binance", "kucoin"})
	assert.Equal(t, trade.ID(), ev.ID)
	assert.Equal(t, "binance", ev.SourceVenue)
	assert.Equal(t, "kucoin", ev.DestVenue)
	assert.Equal(t, "XNO", ev.Currency)
	assert.Equal(t, "USDT", ev.BaseCurrency)
	assert.True(t, ev.QuantityBought.Equal(decimal.RequireFromString("2.997")))
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "buy", StateBuy.String())
	assert.Equal(t, "transfer_out", StateTransferOut.String())
	assert.Equal(t, "liquidate", StateLiquidate.String())
	assert.Equal(t, "transfer_back", StateTransferBack.String())
	assert.Equal(t, "done", StateDone.String())
}
