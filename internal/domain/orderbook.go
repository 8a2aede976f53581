package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel is a single price+quantity entry on one side of a venue's book.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// BookSnapshot is a full bid/ask snapshot for one venue, as delivered by a
// market-data source. Bids are expected best-first (descending price), asks
// best-first (ascending price).
type BookSnapshot struct {
	Venue     string
	Symbol    string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// Quote is the best-of-book pair for one venue, published to the quote cache
// after every snapshot.
type Quote struct {
	Venue     string
	Symbol    string
	BestBid   decimal.Decimal
	BestAsk   decimal.Decimal
	Timestamp time.Time
}
