package trading

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/book"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/clock"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

// Notifier is the operator-alert surface the runner drives on trade
// completion. Satisfied by notify.Notifier.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// RunnerConfig wires a Runner. Bus and Notifier are optional; the zero values
// disable event publishing and notifications respectively.
type RunnerConfig struct {
	Trader  *Trader
	Books   [2]*book.OrderBook
	Wallets [2]domain.Wallet
	Clock   clock.Clock

	// TickInterval is the cadence of Run's tick loop.
	TickInterval time.Duration
	// StatusInterval is how often book and wallet state is logged. Zero
	// disables status output.
	StatusInterval time.Duration

	Bus      domain.EventBus
	Notifier Notifier
	Logger   *slog.Logger
}

// Runner owns the tick loop: it drains queued feed snapshots into the books,
// runs the scanner, and advances every pending trade once per tick. All
// book and wallet mutation happens on the goroutine calling Run (or Tick), so
// the core needs no locking; feed goroutines only ever touch the snapshot
// channel.
type Runner struct {
	trader  *Trader
	books   [2]*book.OrderBook
	wallets [2]domain.Wallet
	clk     clock.Clock

	tickInterval   time.Duration
	statusInterval time.Duration
	lastStatus     time.Time

	snapshots chan domain.BookSnapshot
	pending   []*CrossTrade

	bus      domain.EventBus
	notifier Notifier
	logger   *slog.Logger
}

// NewRunner creates a Runner from cfg.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		trader:         cfg.Trader,
		books:          cfg.Books,
		wallets:        cfg.Wallets,
		clk:            cfg.Clock,
		tickInterval:   cfg.TickInterval,
		statusInterval: cfg.StatusInterval,
		snapshots:      make(chan domain.BookSnapshot, 32),
		bus:            cfg.Bus,
		notifier:       cfg.Notifier,
		logger:         cfg.Logger.With(slog.String("component", "runner")),
	}
}

// Snapshots returns the channel feed pollers write book snapshots to. The
// runner applies queued snapshots at the start of each tick, which serializes
// external book updates against core mutation.
func (r *Runner) Snapshots() chan<- domain.BookSnapshot {
	return r.snapshots
}

// Pending returns the number of trades still settling.
func (r *Runner) Pending() int { return len(r.pending) }

// Run drives Tick at the configured interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("tick loop started",
		slog.Duration("tick_interval", r.tickInterval),
	)
	defer r.logger.Info("tick loop stopped")

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick performs one full cycle: apply queued snapshots, scan for new
// crossings, then advance newly spawned trades first and previously pending
// trades in creation order, dropping every trade that reports completion.
func (r *Runner) Tick(ctx context.Context) {
	r.applySnapshots()

	spawned := r.trader.Step(r.books, r.wallets)
	for _, trade := range spawned {
		r.publish(ctx, openedEvent(trade, r.venueNames()))
	}

	active := make([]*CrossTrade, 0, len(spawned)+len(r.pending))
	active = append(active, spawned...)
	active = append(active, r.pending...)

	r.pending = r.pending[:0]
	for _, trade := range active {
		if trade.Step(r.books, r.wallets) {
			r.finish(ctx, trade)
			continue
		}
		r.pending = append(r.pending, trade)
	}

	r.maybeLogStatus()
}

func (r *Runner) applySnapshots() {
	for {
		select {
		case snap := <-r.snapshots:
			for _, b := range r.books {
				if b.Venue() == snap.Venue {
					b.Apply(snap)
				}
			}
		default:
			return
		}
	}
}

func (r *Runner) finish(ctx context.Context, trade *CrossTrade) {
	if trade.Aborted() {
		// Opportunity evaporated before execution; nothing to report.
		return
	}

	ev := trade.Event(r.venueNames())
	r.publish(ctx, ev)

	if r.notifier != nil {
		msg := fmt.Sprintf("Bought %s %s at %s, returned %s %s to %s",
			ev.QuantityBought, ev.Currency, ev.SourceVenue,
			ev.AmountReturned, ev.BaseCurrency, ev.SourceVenue,
		)
		if err := r.notifier.Notify(ctx, domain.EventTradeCompleted, "Cross trade settled", msg); err != nil {
			r.logger.Warn("trade notification failed", slog.String("error", err.Error()))
		}
	}
}

func (r *Runner) publish(ctx context.Context, ev domain.TradeEvent) {
	if r.bus == nil {
		return
	}
	if err := r.bus.PublishTrade(ctx, ev); err != nil {
		r.logger.Warn("trade event publish failed",
			slog.String("trade_id", ev.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Runner) venueNames() [2]string {
	return [2]string{r.books[0].Venue(), r.books[1].Venue()}
}

func (r *Runner) maybeLogStatus() {
	if r.statusInterval <= 0 {
		return
	}
	now := r.clk.Now()
	if now.Sub(r.lastStatus) < r.statusInterval {
		return
	}
	r.lastStatus = now
	r.logger.Info("status",
		slog.Int("pending_trades", len(r.pending)),
		slog.String(r.books[0].Venue()+"_book", r.books[0].String()),
		slog.String(r.books[1].Venue()+"_book", r.books[1].String()),
		slog.String(r.books[0].Venue()+"_wallet", fmt.Sprint(r.wallets[0])),
		slog.String(r.books[1].Venue()+"_wallet", fmt.Sprint(r.wallets[1])),
	)
}

func openedEvent(trade *CrossTrade, venues [2]string) domain.TradeEvent {
	ev := trade.Event(venues)
	ev.Event = domain.EventTradeOpened
	return ev
}
