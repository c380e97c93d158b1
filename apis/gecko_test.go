package apis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complete-domination/xrp-price-bot/config"
)

func marketsResponse(price, change float64) []map[string]any {
	return []map[string]any{{
		"current_price":               price,
		"price_change_percentage_24h": change,
	}}
}

func TestNewCoinGecko(t *testing.T) {
	cfg := config.Config{
		CoinIDs:  "ripple,xrp",
		GeckoURL: "http://test.com",
	}

	gecko := NewCoinGecko(cfg)
	assert.NotNil(t, gecko)
	assert.Equal(t, cfg, gecko.cfg)
	assert.Equal(t, defaultBackoffs, gecko.backoffs)
	assert.Equal(t, 10*time.Second, gecko.client.Timeout)
}

func TestAcquirePrimarySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify query parameters
		query := r.URL.Query()
		assert.Equal(t, "usd", query.Get("vs_currency"))
		assert.Equal(t, "ripple", query.Get("ids"))
		assert.Equal(t, "xrp-discord-bot/1.0", r.Header.Get("User-Agent"))

		json.NewEncoder(w).Encode(marketsResponse(1.23456, 2.5))
	}))
	defer server.Close()

	gecko := NewCoinGecko(config.Config{CoinIDs: "ripple,xrp", GeckoURL: server.URL})

	start := time.Now()
	quote, err := gecko.Acquire(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1.23456, quote.USD)
	assert.Equal(t, 2.5, quote.Change24h)
	assert.Equal(t, "ripple", quote.CoinID)

	// A first-attempt success must not incur any backoff wait
	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquireFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") == "ripple" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(marketsResponse(0.5, -3.1))
	}))
	defer server.Close()

	gecko := NewCoinGecko(config.Config{CoinIDs: "ripple,xrp", GeckoURL: server.URL})
	gecko.backoffs = []time.Duration{0}

	quote, err := gecko.Acquire(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "xrp", quote.CoinID)
	assert.Equal(t, 0.5, quote.USD)
	assert.Equal(t, -3.1, quote.Change24h)
}

func TestAcquireExhausted(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	gecko := NewCoinGecko(config.Config{CoinIDs: "ripple,xrp", GeckoURL: server.URL})
	gecko.backoffs = []time.Duration{0, 0}

	_, err := gecko.Acquire(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourcesExhausted)
	assert.Contains(t, err.Error(), "non-200 status: 429")

	// Every source must have been tried for every attempt
	assert.Equal(t, int64(2*2), requests.Load())
}

func TestAcquireMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty array", `[]`},
		{"missing price", `[{"price_change_percentage_24h": 1.0}]`},
		{"missing change", `[{"current_price": 1.0}]`},
		{"not an array", `{"current_price": 1.0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			gecko := NewCoinGecko(config.Config{CoinIDs: "ripple", GeckoURL: server.URL})
			gecko.backoffs = []time.Duration{0}

			_, err := gecko.Acquire(context.Background())
			assert.ErrorIs(t, err, ErrSourcesExhausted)
		})
	}
}

func TestAcquireCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gecko := NewCoinGecko(config.Config{CoinIDs: "ripple", GeckoURL: server.URL})
	gecko.backoffs = []time.Duration{0, time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := gecko.Acquire(ctx)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExhaustedErrorWrapsLast(t *testing.T) {
	last := errors.New("boom")
	err := &ExhaustedError{Last: last}

	assert.ErrorIs(t, err, ErrSourcesExhausted)
	assert.ErrorIs(t, err, last)
	assert.Contains(t, err.Error(), "boom")
}
