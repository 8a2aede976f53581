package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonpeter/Crypto-arbitrage-trader/internal/domain"
)

// DefaultBinanceURL is the Binance spot REST API root.
const DefaultBinanceURL = "https://api.binance.com"

// depthLimit is the number of levels requested per side.
const depthLimit = 20

// Binance fetches spot depth from the Binance REST API.
type Binance struct {
	baseURL    string
	symbol     string
	httpClient *http.Client
}

// NewBinance creates a depth client for the given symbol (e.g. "XNOUSDT").
// An empty baseURL selects the production endpoint.
func NewBinance(baseURL, symbol string) *Binance {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	return &Binance{
		baseURL: baseURL,
		symbol:  symbol,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Venue returns "binance".
func (b *Binance) Venue() string { return "binance" }

// Fetch requests the current depth snapshot.
func (b *Binance) Fetch(ctx context.Context) (domain.BookSnapshot, error) {
	params := url.Values{}
	params.Set("symbol", b.symbol)
	params.Set("limit", fmt.Sprint(depthLimit))
	endpoint := b.baseURL + "/api/v3/depth?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("binance: create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("binance: get depth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.BookSnapshot{}, fmt.Errorf("binance: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		LastUpdateID int64      `json:"lastUpdateId"`
		Bids         [][]string `json:"bids"`
		Asks         [][]string `json:"asks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("binance: decode depth: %w", err)
	}

	return buildSnapshot(b.Venue(), b.symbol, payload.Bids, payload.Asks)
}

func buildSnapshot(venue, symbol string, rawBids, rawAsks [][]string) (domain.BookSnapshot, error) {
	bids, err := parseLevels(rawBids)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("%s: parse bids: %w", venue, err)
	}
	asks, err := parseLevels(rawAsks)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("%s: parse asks: %w", venue, err)
	}
	return domain.BookSnapshot{
		Venue:     venue,
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UTC(),
	}, nil
}
