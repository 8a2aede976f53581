package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/cache/redis"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/config"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
	"github.com/wonpeter/Crypto-arbitrage-trader/internal/notify"
)

// Dependencies bundles the shared collaborators the application modes need.
// QuoteCache and Bus are nil when redis is disabled; the trading core runs
// without them.
type Dependencies struct {
	QuoteCache domain.QuoteCache
	Bus        domain.EventBus
	Notifier   *notify.Notifier
}

// Wire constructs the concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to call on
// shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })

		quoteTTL := time.Duration(cfg.Redis.QuoteTTLS) * time.Second
		deps.QuoteCache = redis.NewQuoteCache(client, quoteTTL)
		deps.Bus = redis.NewTradeBus(client, int64(cfg.Redis.StreamMaxLen))
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
