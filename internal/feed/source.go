// Package feed supplies the market-data side of the system: venue-specific
// depth clients and the pollers that turn them into book snapshots for the
// trading runner. Venue connectivity failures never reach the core; pollers
// retry forever with a fixed backoff.
package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

// Source fetches the current order book depth for one venue.
type Source interface {
	// Venue returns the venue identifier snapshots are tagged with.
	Venue() string
	// Fetch returns the venue's current depth.
	Fetch(ctx context.Context) (domain.BookSnapshot, error)
}

// PollerConfig wires a Poller. Quotes is optional; when set, the best-of-book
// of every snapshot is published to the cache.
type PollerConfig struct {
	Source       Source
	Interval     time.Duration
	RetryBackoff time.Duration
	Out          chan<- domain.BookSnapshot
	Quotes       domain.QuoteCache
	Logger       *slog.Logger
}

// Poller fetches depth from a Source at a fixed interval and hands snapshots
// to the runner's queue. A failed fetch is retried after RetryBackoff until
// it succeeds or the context ends.
type Poller struct {
	source  Source
	every   time.Duration
	backoff time.Duration
	out     chan<- domain.BookSnapshot
	quotes  domain.QuoteCache
	logger  *slog.Logger
}

// NewPoller creates a Poller from cfg.
func NewPoller(cfg PollerConfig) *Poller {
	return &Poller{
		source:  cfg.Source,
		every:   cfg.Interval,
		backoff: cfg.RetryBackoff,
		out:     cfg.Out,
		quotes:  cfg.Quotes,
		logger: cfg.Logger.With(
			slog.String("component", "poller"),
			slog.String("venue", cfg.Source.Venue()),
		),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", slog.Duration("interval", p.every))
	defer p.logger.Info("poller stopped")

	ticker := time.NewTicker(p.every)
	defer ticker.Stop()

	for {
		if err := p.pollOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// pollOnce fetches one snapshot, retrying with fixed backoff, and delivers it.
// It only returns an error when the context ends.
func (p *Poller) pollOnce(ctx context.Context) error {
	for {
		snap, err := p.source.Fetch(ctx)
		if err == nil {
			return p.deliver(ctx, snap)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("depth fetch failed, retrying",
			slog.String("error", err.Error()),
			slog.Duration("backoff", p.backoff),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff):
		}
	}
}

func (p *Poller) deliver(ctx context.Context, snap domain.BookSnapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.out <- snap:
	}

	if p.quotes != nil {
		if err := p.quotes.SetQuote(ctx, SnapshotQuote(snap)); err != nil {
			p.logger.Warn("quote publish failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// SnapshotQuote extracts the best bid and ask from a snapshot without
// assuming the venue served the levels sorted.
func SnapshotQuote(snap domain.BookSnapshot) domain.Quote {
	q := domain.Quote{
		Venue:     snap.Venue,
		Symbol:    snap.Symbol,
		Timestamp: snap.Timestamp,
	}
	for _, lvl := range snap.Bids {
		if q.BestBid.IsZero() || lvl.Price.GreaterThan(q.BestBid) {
			q.BestBid = lvl.Price
		}
	}
	for _, lvl := range snap.Asks {
		if q.BestAsk.IsZero() || lvl.Price.LessThan(q.BestAsk) {
			q.BestAsk = lvl.Price
		}
	}
	return q
}

// parseLevels converts the [price, quantity] string pairs most exchange depth
// endpoints serve into price levels.
func parseLevels(raw [][]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			return nil, domain.ErrBadSnapshot
		}
		price, err := decimal.NewFromString(pair[0])
		if err != nil {
			return nil, domain.ErrBadSnapshot
		}
		qty, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, domain.ErrBadSnapshot
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}
