package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

// tradeStream is the Redis stream trade events are appended to.
const tradeStream = "trades"

// TradeBus implements domain.EventBus on a capped Redis stream, so a
// monitoring process can tail executions without the trader persisting any
// history itself.
type TradeBus struct {
	rdb    *redis.Client
	maxLen int64
}

// NewTradeBus creates a TradeBus. maxLen caps the stream length (approximate,
// enforced via XADD MAXLEN ~); non-positive values fall back to 10000.
func NewTradeBus(c *Client, maxLen int64) *TradeBus {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &TradeBus{rdb: c.Underlying(), maxLen: maxLen}
}

// PublishTrade appends a trade event to the stream.
func (tb *TradeBus) PublishTrade(ctx context.Context, ev domain.TradeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis: marshal trade event: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: tradeStream,
		MaxLen: tb.maxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := tb.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: publish trade event: %w", err)
	}
	return nil
}

var _ domain.EventBus = (*TradeBus)(nil)
