package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

const (
	// DefaultBinanceWSURL is the Binance spot market-stream endpoint.
	DefaultBinanceWSURL = "wss://stream.binance.com:9443"

	wsHandshakeTimeout = 15 * time.Second
	wsReadWait         = 60 * time.Second
	wsReconnectDelay   = 2 * time.Second
)

// BinanceWS streams partial depth snapshots over the Binance websocket market
// stream. It is the low-latency alternative to REST polling: each stream
// message is already a full top-of-book snapshot, so it feeds the same
// snapshot channel the pollers do.
type BinanceWS struct {
	wsURL  string
	symbol string
	out    chan<- domain.BookSnapshot
	quotes domain.QuoteCache
	logger *slog.Logger
}

// NewBinanceWS creates a depth stream for the given symbol. An empty wsURL
// selects the production endpoint. Quotes is optional.
func NewBinanceWS(wsURL, symbol string, out chan<- domain.BookSnapshot, quotes domain.QuoteCache, logger *slog.Logger) *BinanceWS {
	if wsURL == "" {
		wsURL = DefaultBinanceWSURL
	}
	return &BinanceWS{
		wsURL:  wsURL,
		symbol: symbol,
		out:    out,
		quotes: quotes,
		logger: logger.With(
			slog.String("component", "binance_ws"),
			slog.String("symbol", symbol),
		),
	}
}

// Run maintains the stream until ctx is cancelled, reconnecting after a fixed
// delay whenever the connection drops.
func (w *BinanceWS) Run(ctx context.Context) error {
	stream := fmt.Sprintf("%s/ws/%s@depth%d@100ms", w.wsURL, strings.ToLower(w.symbol), depthLimit)

	for {
		if err := w.stream(ctx, stream); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Warn("stream dropped, reconnecting",
				slog.String("error", err.Error()),
				slog.Duration("delay", wsReconnectDelay),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wsReconnectDelay):
		}
	}
}

func (w *BinanceWS) stream(ctx context.Context, streamURL string) error {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("binance_ws: connect: %w", err)
	}
	defer conn.Close()

	// Binance pings the client; answering with pongs is handled by gorilla.
	// The read deadline guards against a silently dead connection.
	_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	w.logger.Info("stream connected")

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("binance_ws: read: %w", domain.ErrWSDisconnect)
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))

		var payload struct {
			LastUpdateID int64      `json:"lastUpdateId"`
			Bids         [][]string `json:"bids"`
			Asks         [][]string `json:"asks"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			w.logger.Warn("bad stream message", slog.String("error", err.Error()))
			continue
		}

		snap, err := buildSnapshot("binance", w.symbol, payload.Bids, payload.Asks)
		if err != nil {
			w.logger.Warn("bad depth levels", slog.String("error", err.Error()))
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case w.out <- snap:
		}

		if w.quotes != nil {
			if err := w.quotes.SetQuote(ctx, SnapshotQuote(snap)); err != nil {
				w.logger.Warn("quote publish failed", slog.String("error", err.Error()))
			}
		}
	}
}
