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

// DefaultKuCoinURL is the KuCoin REST API root.
const DefaultKuCoinURL = "https://api.kucoin.com"

// KuCoin fetches part-orderbook depth from the KuCoin REST API.
type KuCoin struct {
	baseURL    string
	symbol     string
	httpClient *http.Client
}

// NewKuCoin creates a depth client for the given symbol (e.g. "XNO-USDT").
// An empty baseURL selects the production endpoint.
func NewKuCoin(baseURL, symbol string) *KuCoin {
	if baseURL == "" {
		baseURL = DefaultKuCoinURL
	}
	return &KuCoin{
		baseURL: baseURL,
		symbol:  symbol,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Venue returns "kucoin".
func (k *KuCoin) Venue() string { return "kucoin" }

// Fetch requests the top-20 depth snapshot.
func (k *KuCoin) Fetch(ctx context.Context) (domain.BookSnapshot, error) {
	params := url.Values{}
	params.Set("symbol", k.symbol)
	endpoint := k.baseURL + "/api/v1/market/orderbook/level2_20?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("kucoin: create request: %w", err)
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("kucoin: get depth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.BookSnapshot{}, fmt.Errorf("kucoin: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Code string `json:"code"`
		Data struct {
			Time int64      `json:"time"`
			Bids [][]string `json:"bids"`
			Asks [][]string `json:"asks"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("kucoin: decode depth: %w", err)
	}
	if payload.Code != "200000" {
		return domain.BookSnapshot{}, fmt.Errorf("kucoin: api code %s", payload.Code)
	}

	return buildSnapshot(k.Venue(), k.symbol, payload.Data.Bids, payload.Data.Asks)
}
