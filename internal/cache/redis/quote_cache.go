package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes. Each venue's
// latest quote lives at "quote:{venue}:{symbol}" with fields "bid", "ask" and
// "ts" (Unix nanoseconds).
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client. A ttl of
// zero keeps quotes until overwritten.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

func quoteKey(venue, symbol string) string {
	return "quote:" + venue + ":" + symbol
}

// SetQuote stores the latest best-of-book quote for a venue.
func (qc *QuoteCache) SetQuote(ctx context.Context, q domain.Quote) error {
	key := quoteKey(q.Venue, q.Symbol)
	fields := map[string]interface{}{
		"bid": q.BestBid.String(),
		"ask": q.BestAsk.String(),
		"ts":  strconv.FormatInt(q.Timestamp.UnixNano(), 10),
	}
	if err := qc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", key, err)
	}
	if qc.ttl > 0 {
		if err := qc.rdb.Expire(ctx, key, qc.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire quote %s: %w", key, err)
		}
	}
	return nil
}

// GetQuote retrieves the latest quote for a venue. It returns
// domain.ErrNotFound when none has been published.
func (qc *QuoteCache) GetQuote(ctx context.Context, venue, symbol string) (domain.Quote, error) {
	key := quoteKey(venue, symbol)
	vals, err := qc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s: %w", key, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}

	bid, err := decimal.NewFromString(vals["bid"])
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse bid %s: %w", key, err)
	}
	ask, err := decimal.NewFromString(vals["ask"])
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse ask %s: %w", key, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse ts %s: %w", key, err)
	}

	return domain.Quote{
		Venue:     venue,
		Symbol:    symbol,
		BestBid:   bid,
		BestAsk:   ask,
		Timestamp: time.Unix(0, tsNano),
	}, nil
}

var _ domain.QuoteCache = (*QuoteCache)(nil)
