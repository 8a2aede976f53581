// Package book holds the per-venue order book the arbitrage core scans and
// consumes. Books are populated by a market-data source (internal/feed) and
// mutated in place by the trading loop; all access happens on the tick
// goroutine, so the type carries no locking.
package book

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

// OrderBook stores resting bid and ask liquidity for one venue. Bids are kept
// in descending price order, asks ascending, so the best of each side is
// always the first element.
type OrderBook struct {
	venue string
	bids  []domain.PriceLevel
	asks  []domain.PriceLevel
}

// New creates an empty book for the named venue.
func New(venue string) *OrderBook {
	return &OrderBook{venue: venue}
}

// Venue returns the venue this book belongs to.
func (b *OrderBook) Venue() string { return b.venue }

// BestBid returns the highest resting bid, or false when the bid side is empty.
func (b *OrderBook) BestBid() (domain.PriceLevel, bool) {
	if len(b.bids) == 0 {
		return domain.PriceLevel{}, false
	}
	return b.bids[0], true
}

// BestAsk returns the lowest resting ask, or false when the ask side is empty.
func (b *OrderBook) BestAsk() (domain.PriceLevel, bool) {
	if len(b.asks) == 0 {
		return domain.PriceLevel{}, false
	}
	return b.asks[0], true
}

// ReduceBid removes up to quantity from the bid level at price and returns the
// amount actually removed. The level is deleted once fully consumed. Reducing
// a price with no resting level is a no-op returning zero; callers are
// expected to pass a price obtained from a best-of-book read within the same
// tick.
func (b *OrderBook) ReduceBid(price, quantity decimal.Decimal) decimal.Decimal {
	return reduce(&b.bids, price, quantity)
}

// ReduceAsk is the ask-side counterpart of ReduceBid.
func (b *OrderBook) ReduceAsk(price, quantity decimal.Decimal) decimal.Decimal {
	return reduce(&b.asks, price, quantity)
}

func reduce(side *[]domain.PriceLevel, price, quantity decimal.Decimal) decimal.Decimal {
	levels := *side
	for i := range levels {
		if !levels[i].Price.Equal(price) {
			continue
		}
		remaining := levels[i].Quantity.Sub(quantity)
		if remaining.Sign() <= 0 {
			removed := levels[i].Quantity
			*side = append(levels[:i], levels[i+1:]...)
			return removed
		}
		levels[i].Quantity = remaining
		return quantity
	}
	return decimal.Zero
}

// Liquidate executes a market sell against the bid side: it walks the book
// best-bid-first, consuming each level until either target has been sold or
// no bids remain. It returns the amount sold and the base-currency proceeds,
// accumulated exactly as the sum of price times quantity over the consumed
// levels. This is the only operation that touches more than one level per
// call.
func (b *OrderBook) Liquidate(target decimal.Decimal) (sold, proceeds decimal.Decimal) {
	sold = decimal.Zero
	proceeds = decimal.Zero
	for sold.LessThan(target) && len(b.bids) > 0 {
		price := b.bids[0].Price
		amount := reduce(&b.bids, price, target.Sub(sold))
		if amount.IsZero() {
			break
		}
		sold = sold.Add(amount)
		proceeds = proceeds.Add(amount.Mul(price))
	}
	return sold, proceeds
}

// Apply replaces both sides of the book with the levels from a feed snapshot.
// Levels with non-positive quantity are dropped and each side is re-sorted so
// the best-of-book ordering holds regardless of how the venue serves depth.
func (b *OrderBook) Apply(snap domain.BookSnapshot) {
	b.bids = sortedLevels(snap.Bids, func(a, c domain.PriceLevel) bool {
		return a.Price.GreaterThan(c.Price)
	})
	b.asks = sortedLevels(snap.Asks, func(a, c domain.PriceLevel) bool {
		return a.Price.LessThan(c.Price)
	})
}

func sortedLevels(in []domain.PriceLevel, less func(a, b domain.PriceLevel) bool) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(in))
	for _, lvl := range in {
		if lvl.Quantity.Sign() > 0 {
			out = append(out, lvl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// String renders both sides best-first, for periodic operator output.
func (b *OrderBook) String() string {
	var sb strings.Builder
	sb.WriteString("Bids:")
	for _, lvl := range b.bids {
		fmt.Fprintf(&sb, " (%s, %s)", lvl.Price, lvl.Quantity)
	}
	sb.WriteString(" Asks:")
	for _, lvl := range b.asks {
		fmt.Fprintf(&sb, " (%s, %s)", lvl.Price, lvl.Quantity)
	}
	return sb.String()
}
