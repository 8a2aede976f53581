package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TradeEvent describes the outcome of one settled cross-venue trade. Events
// are pushed to the notifier and, when redis is wired, to the trade event bus
// so a monitoring process can follow executions live.
type TradeEvent struct {
	ID             string          `json:"id"`
	Event          string          `json:"event"`
	SourceVenue    string          `json:"source_venue"`
	DestVenue      string          `json:"dest_venue"`
	Currency       string          `json:"currency"`
	BaseCurrency   string          `json:"base_currency"`
	QuantityBought decimal.Decimal `json:"quantity_bought"`
	AmountReturned decimal.Decimal `json:"amount_returned"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// Trade event types.
const (
	EventTradeOpened    = "trade_opened"
	EventTradeCompleted = "trade_completed"
)

// QuoteCache stores the latest best-of-book quote per venue.
type QuoteCache interface {
	SetQuote(ctx context.Context, q Quote) error
	// GetQuote returns ErrNotFound when no quote has been published for the
	// venue yet.
	GetQuote(ctx context.Context, venue, symbol string) (Quote, error)
}

// EventBus carries trade events to out-of-process consumers.
type EventBus interface {
	PublishTrade(ctx context.Context, ev TradeEvent) error
}
