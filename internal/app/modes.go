package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/book"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/clock"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/config"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/feed"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/trading"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/wallet"
)

// SimulateMode arbitrages live venue books against simulated wallets: real
// market data, no real orders. One feed goroutine per venue keeps the books
// fresh through the runner's snapshot queue while the runner ticks the
// trading core.
func (a *App) SimulateMode(ctx context.Context, deps *Dependencies) error {
	logger := slog.Default()

	var books [2]*book.OrderBook
	var wallets [2]domain.Wallet
	for i, v := range a.cfg.Venues {
		books[i] = book.New(v.Name)
		wallets[i] = wallet.NewSimulated(wallet.Config{
			Balances: map[string]decimal.Decimal{
				a.cfg.Pair.BaseCurrency: decimal.NewFromFloat(v.StartingBalance),
			},
			TradeFee:       decimal.NewFromFloat(v.TradeFee),
			WithdrawalFees: decimalFeeMap(v.WithdrawalFees),
		})
	}

	clk := clock.NewRealtime()
	transfers := trading.TransferTimes{
		TradedCurrency: time.Duration(a.cfg.Execution.TradedTransferS) * time.Second,
		BaseCurrency:   time.Duration(a.cfg.Execution.BaseTransferS) * time.Second,
	}

	trader := trading.NewTrader(
		a.cfg.Pair.TradedCurrency,
		a.cfg.Pair.BaseCurrency,
		transfers,
		clk,
		logger,
	)
	runner := trading.NewRunner(trading.RunnerConfig{
		Trader:         trader,
		Books:          books,
		Wallets:        wallets,
		Clock:          clk,
		TickInterval:   time.Duration(a.cfg.Execution.TickIntervalMs) * time.Millisecond,
		StatusInterval: time.Duration(a.cfg.Execution.StatusIntervalS) * time.Second,
		Bus:            deps.Bus,
		Notifier:       deps.Notifier,
		Logger:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range a.cfg.Venues {
		run, err := a.feedFor(v, runner.Snapshots(), deps.QuoteCache, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return run(gctx) })
	}
	g.Go(func() error { return runner.Run(gctx) })

	return g.Wait()
}

// MonitorMode runs the venue feeds and publishes best-of-book quotes to
// redis without trading. It exists so operators can watch spreads before
// committing capital.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	if deps.QuoteCache == nil {
		return fmt.Errorf("app: monitor mode requires redis to be enabled")
	}
	logger := slog.Default()

	snapshots := make(chan domain.BookSnapshot, 32)

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range a.cfg.Venues {
		run, err := a.feedFor(v, snapshots, deps.QuoteCache, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return run(gctx) })
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case snap := <-snapshots:
				q := feed.SnapshotQuote(snap)
				a.logger.Debug("quote",
					slog.String("venue", q.Venue),
					slog.String("bid", q.BestBid.String()),
					slog.String("ask", q.BestAsk.String()),
				)
			}
		}
	})

	return g.Wait()
}

// feedFor builds the depth feed for one venue: a websocket stream where the
// venue supports it and it is enabled, a REST poller otherwise.
func (a *App) feedFor(v config.VenueConfig, out chan<- domain.BookSnapshot, quotes domain.QuoteCache, logger *slog.Logger) (func(context.Context) error, error) {
	var source feed.Source
	switch v.Name {
	case "binance":
		if v.UseWebsocket {
			ws := feed.NewBinanceWS(v.WSURL, v.Symbol, out, quotes, logger)
			return ws.Run, nil
		}
		source = feed.NewBinance(v.APIURL, v.Symbol)
	case "kucoin":
		if v.UseWebsocket {
			return nil, fmt.Errorf("app: websocket depth is not supported for %q", v.Name)
		}
		source = feed.NewKuCoin(v.APIURL, v.Symbol)
	default:
		return nil, fmt.Errorf("app: unsupported venue %q", v.Name)
	}

	poller := feed.NewPoller(feed.PollerConfig{
		Source:       source,
		Interval:     time.Duration(a.cfg.Execution.PollIntervalMs) * time.Millisecond,
		RetryBackoff: time.Duration(a.cfg.Execution.RetryBackoffMs) * time.Millisecond,
		Out:          out,
		Quotes:       quotes,
		Logger:       logger,
	})
	return poller.Run, nil
}

func decimalFeeMap(fees map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(fees))
	for cur, fee := range fees {
		out[cur] = decimal.NewFromFloat(fee)
	}
	return out
}
