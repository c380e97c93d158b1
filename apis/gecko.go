// Package apis provides external price feed integrations
package apis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/complete-domination/xrp-price-bot/config"
	"github.com/complete-domination/xrp-price-bot/pricefeed"
)

// userAgent identifies the bot to the CoinGecko API
const userAgent = "xrp-discord-bot/1.0"

// defaultBackoffs is the wait before each retry attempt of a single coin id.
// The first attempt runs without waiting.
var defaultBackoffs = []time.Duration{0, 1500 * time.Millisecond, 3 * time.Second, 5 * time.Second}

// ErrSourcesExhausted reports that every coin id failed every attempt
var ErrSourcesExhausted = errors.New("all price sources exhausted")

// ExhaustedError carries the last recoverable error once every coin id has
// failed every attempt. It matches ErrSourcesExhausted via errors.Is.
type ExhaustedError struct {
	Last error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all price sources exhausted, last error: %v", e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (e *ExhaustedError) Is(target error) bool { return target == ErrSourcesExhausted }

// CoinGecko implements a price feed using the CoinGecko markets API
type CoinGecko struct {
	cfg      config.Config
	client   *http.Client
	backoffs []time.Duration
}

// marketRow is the subset of a CoinGecko markets record the bot reads.
// Pointers distinguish a missing field from a zero value.
type marketRow struct {
	CurrentPrice             *float64 `json:"current_price"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}

// NewCoinGecko creates a new CoinGecko price feed instance
func NewCoinGecko(cfg config.Config) *CoinGecko {
	return &CoinGecko{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoffs: defaultBackoffs,
	}
}

// fetchOne performs a single bounded request for one coin id
func (g *CoinGecko) fetchOne(ctx context.Context, coinID string) (pricefeed.Quote, error) {
	params := url.Values{}
	params.Add("vs_currency", "usd")
	params.Add("ids", coinID)

	fullURL := fmt.Sprintf("%s?%s", g.cfg.GeckoURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return pricefeed.Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return pricefeed.Quote{}, fmt.Errorf("failed to fetch price: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pricefeed.Quote{}, fmt.Errorf("API returned non-200 status: %d", resp.StatusCode)
	}

	var rows []marketRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return pricefeed.Quote{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(rows) == 0 {
		return pricefeed.Quote{}, fmt.Errorf("empty payload for id %q", coinID)
	}

	row := rows[0]
	if row.CurrentPrice == nil || row.PriceChangePercentage24h == nil {
		return pricefeed.Quote{}, fmt.Errorf("missing price fields for id %q", coinID)
	}

	return pricefeed.Quote{
		USD:       *row.CurrentPrice,
		Change24h: *row.PriceChangePercentage24h,
		CoinID:    coinID,
	}, nil
}

// Acquire fetches one quote, walking the configured coin ids in priority
// order and retrying each per the backoff schedule. The first successful
// parse returns immediately; an ExhaustedError is returned only after every
// id has failed every attempt.
func (g *CoinGecko) Acquire(ctx context.Context) (pricefeed.Quote, error) {
	ids := g.cfg.CoinIDList()

	var lastErr error

	for _, coinID := range ids {
		for attempt, delay := range g.backoffs {
			if delay > 0 {
				if err := sleep(ctx, delay); err != nil {
					return pricefeed.Quote{}, err
				}
			}

			quote, err := g.fetchOne(ctx, coinID)
			if err != nil {
				lastErr = err
				log.Printf("⚠️ CoinGecko error for id %q (attempt %d): %v", coinID, attempt+1, err)

				continue
			}

			if coinID != ids[0] {
				log.Printf("📡 Using fallback CoinGecko id %q", coinID)
			}

			return quote, nil
		}
	}

	return pricefeed.Quote{}, &ExhaustedError{Last: lastErr}
}

// sleep waits for d unless ctx is cancelled first
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
