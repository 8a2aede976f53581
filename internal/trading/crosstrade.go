package trading

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/book"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/clock"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

var one = decimal.NewFromInt(1)

// State is the settlement phase of a cross-venue trade. States only move
// forward; there is no regression and no retry across non-adjacent states.
type State int

const (
	// StateBuy purchases the traded currency at the source venue.
	StateBuy State = iota
	// StateTransferOut waits out the traded-currency transfer to the
	// destination venue.
	StateTransferOut
	// StateLiquidate sells the held quantity into the destination book,
	// retrying across ticks while the fill is partial.
	StateLiquidate
	// StateTransferBack waits out the base-currency transfer home, then
	// deposits the proceeds at the source venue.
	StateTransferBack
	// StateDone is terminal.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateBuy:
		return "buy"
	case StateTransferOut:
		return "transfer_out"
	case StateLiquidate:
		return "liquidate"
	case StateTransferBack:
		return "transfer_back"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// TransferTimes models the settlement latency of moving each currency
// between venues. Real deployments set these per asset; the defaults mirror a
// near-instant traded asset and a slow base-currency rail.
type TransferTimes struct {
	TradedCurrency time.Duration
	BaseCurrency   time.Duration
}

// DefaultTransferTimes returns the reference latencies: one second for the
// traded currency, six minutes for the base currency.
func DefaultTransferTimes() TransferTimes {
	return TransferTimes{
		TradedCurrency: time.Second,
		BaseCurrency:   6 * time.Minute,
	}
}

// CrossTrade is the settlement state machine for one arbitrage execution:
// buy at the source venue, transfer, liquidate at the destination venue,
// transfer the proceeds back. One Step call performs exactly the transition
// appropriate to the current state.
type CrossTrade struct {
	id           string
	src, dst     int
	currency     string
	baseCurrency string
	transfers    TransferTimes
	clk          clock.Clock
	logger       *slog.Logger

	state                State
	aborted              bool
	heldQuantity         decimal.Decimal
	amountSold           decimal.Decimal
	amountToTransferBack decimal.Decimal
	transferStart        time.Time
}

// NewCrossTrade creates a trade that buys currency at venue src and sells it
// at venue dst, settling proceeds in baseCurrency.
func NewCrossTrade(src, dst int, currency, baseCurrency string, transfers TransferTimes, clk clock.Clock, logger *slog.Logger) *CrossTrade {
	id := uuid.NewString()
	return &CrossTrade{
		id:           id,
		src:          src,
		dst:          dst,
		currency:     currency,
		baseCurrency: baseCurrency,
		transfers:    transfers,
		clk:          clk,
		logger: logger.With(
			slog.String("trade_id", id),
			slog.Int("src", src),
			slog.Int("dst", dst),
		),
		heldQuantity:         decimal.Zero,
		amountSold:           decimal.Zero,
		amountToTransferBack: decimal.Zero,
	}
}

// ID returns the trade's correlation identifier.
func (t *CrossTrade) ID() string { return t.id }

// Source returns the venue index the trade buys at.
func (t *CrossTrade) Source() int { return t.src }

// Destination returns the venue index the trade sells at.
func (t *CrossTrade) Destination() int { return t.dst }

// State returns the current settlement phase.
func (t *CrossTrade) State() State { return t.state }

// Aborted reports whether the trade ended in the buy phase without executing.
func (t *CrossTrade) Aborted() bool { return t.aborted }

// HeldQuantity returns the traded-currency units purchased and pending sale.
func (t *CrossTrade) HeldQuantity() decimal.Decimal { return t.heldQuantity }

// AmountSold returns the cumulative fill on the sell leg.
func (t *CrossTrade) AmountSold() decimal.Decimal { return t.amountSold }

// AmountToTransferBack returns the net base-currency proceeds accumulated so
// far.
func (t *CrossTrade) AmountToTransferBack() decimal.Decimal { return t.amountToTransferBack }

// Step advances the trade by one transition against the given books and
// wallets and reports whether the trade has reached its terminal state. Books
// are only mutated in the buy and liquidate phases, wallets only in the buy
// and transfer-back phases. All waiting is expressed as "not done yet, call
// again next tick"; Step never blocks.
func (t *CrossTrade) Step(books [2]*book.OrderBook, wallets [2]domain.Wallet) bool {
	switch t.state {
	case StateBuy:
		return t.buy(books, wallets)
	case StateTransferOut:
		if t.clk.Now().Sub(t.transferStart) < t.transfers.TradedCurrency {
			return false
		}
		t.state = StateLiquidate
		t.logger.Debug("transfer out complete", slog.String("state", t.state.String()))
		return false
	case StateLiquidate:
		return t.liquidate(books, wallets)
	case StateTransferBack:
		if t.clk.Now().Sub(t.transferStart) < t.transfers.BaseCurrency {
			return false
		}
		wallets[t.src].Deposit(t.amountToTransferBack, t.baseCurrency)
		t.state = StateDone
		t.logger.Info("trade settled",
			slog.String("amount_returned", t.amountToTransferBack.String()),
			slog.String("currency", t.baseCurrency),
		)
		return true
	default:
		return true
	}
}

// buy determines the executable quantity from both best-of-book reads and the
// source balance, consumes the source ask level, and withdraws the fiat cost.
// Any precondition failure aborts the trade silently: the opportunity simply
// evaporated, and no book or wallet state has been touched yet.
func (t *CrossTrade) buy(books [2]*book.OrderBook, wallets [2]domain.Wallet) bool {
	balance := wallets[t.src].Balance(t.baseCurrency)
	if balance.Sign() <= 0 {
		return t.abort("no funds at source venue")
	}

	ask, okAsk := books[t.src].BestAsk()
	bid, okBid := books[t.dst].BestBid()
	if !okAsk || !okBid {
		return t.abort("best-of-book quote gone")
	}

	quantity := decimal.Min(ask.Quantity, bid.Quantity, balance.Div(ask.Price))
	if quantity.Sign() <= 0 {
		return t.abort("no purchasable quantity")
	}

	books[t.src].ReduceAsk(ask.Price, quantity)
	cost := quantity.Mul(ask.Price)
	t.heldQuantity = quantity.Mul(one.Sub(wallets[t.src].TradeFee()))
	wallets[t.src].Withdraw(cost, t.baseCurrency)

	t.transferStart = t.clk.Now()
	t.state = StateTransferOut
	t.logger.Debug("bought at source venue",
		slog.String("price", ask.Price.String()),
		slog.String("quantity", quantity.String()),
		slog.String("cost", cost.String()),
		slog.String("held", t.heldQuantity.String()),
	)
	return false
}

// liquidate market-sells the unsold remainder into the destination book. On a
// partial fill the trade stays in this state and retries against the possibly
// repopulated book next tick; there is no timeout, so a destination that
// never regains liquidity stalls the trade indefinitely.
func (t *CrossTrade) liquidate(books [2]*book.OrderBook, wallets [2]domain.Wallet) bool {
	remaining := t.heldQuantity.Sub(t.amountSold)
	sold, proceeds := books[t.dst].Liquidate(remaining)
	t.amountSold = t.amountSold.Add(sold)

	net := proceeds.Mul(one.Sub(wallets[t.dst].TradeFee())).Sub(wallets[t.dst].WithdrawalFee(t.baseCurrency))
	t.amountToTransferBack = t.amountToTransferBack.Add(net)

	if t.amountSold.LessThan(t.heldQuantity) {
		t.logger.Debug("partial fill at destination",
			slog.String("sold", t.amountSold.String()),
			slog.String("held", t.heldQuantity.String()),
		)
		return false
	}

	t.transferStart = t.clk.Now()
	t.state = StateTransferBack
	t.logger.Debug("liquidation complete",
		slog.String("sold", t.amountSold.String()),
		slog.String("to_transfer_back", t.amountToTransferBack.String()),
	)
	return false
}

func (t *CrossTrade) abort(reason string) bool {
	t.aborted = true
	t.state = StateDone
	t.logger.Debug("trade aborted", slog.String("reason", reason))
	return true
}

// Event builds the completed-trade event for the notifier and event bus.
func (t *CrossTrade) Event(venues [2]string) domain.TradeEvent {
	return domain.TradeEvent{
		ID:             t.id,
		Event:          domain.EventTradeCompleted,
		SourceVenue:    venues[t.src],
		DestVenue:      venues[t.dst],
		Currency:       t.currency,
		BaseCurrency:   t.baseCurrency,
		QuantityBought: t.heldQuantity,
		AmountReturned: t.amountToTransferBack,
		CompletedAt:    t.clk.Now(),
	}
}
