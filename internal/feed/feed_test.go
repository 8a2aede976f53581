package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLevels(t *testing.T) {
	levels, err := parseLevels([][]string{
		{"10.00", "5"},
		{"9.95", "2.5"},
	})
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.True(t, levels[0].Price.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, levels[1].Quantity.Equal(decimal.RequireFromString("2.5")))
}

func TestParseLevelsRejectsMalformedInput(t *testing.T) {
	_, err := parseLevels([][]string{{"10.00"}})
	assert.ErrorIs(t, err, domain.ErrBadSnapshot)

	_, err = parseLevels([][]string{{"not-a-number", "5"}})
	assert.ErrorIs(t, err, domain.ErrBadSnapshot)

	_, err = parseLevels([][]string{{"10.00", "lots"}})
	assert.ErrorIs(t, err, domain.ErrBadSnapshot)
}

func TestSnapshotQuoteHandlesUnsortedDepth(t *testing.T) {
	q := SnapshotQuote(domain.BookSnapshot{
		Venue:  "binance",
		Symbol: "XNOUSDT",
		Bids: []domain.PriceLevel{
			{Price: decimal.RequireFromString("9.90"), Quantity: decimal.RequireFromString("1")},
			{Price: decimal.RequireFromString("10.00"), Quantity: decimal.RequireFromString("1")},
		},
		Asks: []domain.PriceLevel{
			{Price: decimal.RequireFromString("10.30"), Quantity: decimal.RequireFromString("1")},
			{Price: decimal.RequireFromString("10.10"), Quantity: decimal.RequireFromString("1")},
		},
	})

	assert.Equal(t, "binance", q.Venue)
	assert.True(t, q.BestBid.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, q.BestAsk.Equal(decimal.RequireFromString("10.10")))
}

func TestBinanceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/depth", r.URL.Path)
		assert.Equal(t, "XNOUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"lastUpdateId": 1027024,
			"bids": [["10.00", "5"], ["9.95", "2"]],
			"asks": [["10.10", "3"]]
		}`))
	}))
	defer srv.Close()

	snap, err := NewBinance(srv.URL, "XNOUSDT").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "binance", snap.Venue)
	assert.Equal(t, "XNOUSDT", snap.Symbol)
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Asks[0].Price.Equal(decimal.RequireFromString("10.10")))
}

func TestBinanceFetchRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := NewBinance(srv.URL, "XNOUSDT").Fetch(context.Background())
	assert.Error(t, err)
}

func TestKuCoinFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/market/orderbook/level2_20", r.URL.Path)
		assert.Equal(t, "XNO-USDT", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "200000",
			"data": {
				"time": 1550653727731,
				"bids": [["9.99", "10"]],
				"asks": [["10.05", "4"], ["10.06", "1"]]
			}
		}`))
	}))
	defer srv.Close()

	snap, err := NewKuCoin(srv.URL, "XNO-USDT").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kucoin", snap.Venue)
	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Asks, 2)
	assert.True(t, snap.Bids[0].Quantity.Equal(decimal.RequireFromString("10")))
}

func TestKuCoinFetchRejectsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": "400100", "data": {}}`))
	}))
	defer srv.Close()

	_, err := NewKuCoin(srv.URL, "XNO-USDT").Fetch(context.Background())
	assert.Error(t, err)
}

func TestPollerDeliversAndRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"lastUpdateId": 1, "bids": [["10.00", "1"]], "asks": [["10.10", "1"]]}`))
	}))
	defer srv.Close()

	out := make(chan domain.BookSnapshot, 1)
	poller := NewPoller(PollerConfig{
		Source:       NewBinance(srv.URL, "XNOUSDT"),
		Interval:     time.Hour,
		RetryBackoff: time.Millisecond,
		Out:          out,
		Logger:       discardLogger(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	select {
	case snap := <-out:
		assert.Equal(t, "binance", snap.Venue)
		assert.GreaterOrEqual(t, calls, 2)
	case <-ctx.Done():
		t.Fatal("poller never delivered a snapshot")
	}

	cancel()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}
