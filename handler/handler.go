// Package handler exposes the bot's last acquired quote over HTTP
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/complete-domination/xrp-price-bot/pricefeed"
)

// Status is the payload served by the status endpoint
type Status struct {
	PriceUSD  float64   `json:"price_usd"`
	Change24h float64   `json:"change_24h_percent"`
	CoinID    string    `json:"coin_id"`
	FetchedAt time.Time `json:"fetched_at"`
}

// StatusHandler serves the most recent quote as JSON. It answers 503 until
// the first quote has been recorded.
type StatusHandler struct {
	mu      sync.RWMutex
	last    Status
	readyCh chan struct{} // closed once the first quote lands
	once    sync.Once

	readyWait time.Duration
}

// NewStatusHandler creates an empty status handler
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{
		readyCh:   make(chan struct{}),
		readyWait: 3 * time.Second,
	}
}

// Record stores a freshly acquired quote
func (h *StatusHandler) Record(q pricefeed.Quote) {
	h.mu.Lock()
	h.last = Status{
		PriceUSD:  q.USD,
		Change24h: q.Change24h,
		CoinID:    q.CoinID,
		FetchedAt: time.Now().UTC(),
	}
	h.mu.Unlock()

	h.once.Do(func() { close(h.readyCh) })
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Wait until the first quote is ready
	select {
	case <-h.readyCh:
	case <-time.After(h.readyWait): // fallback timeout
		http.Error(w, "no quote yet", http.StatusServiceUnavailable)

		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.last); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}
}

// Serve starts the status server on addr. It blocks; run it in a goroutine.
func (h *StatusHandler) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/status", h)

	log.Printf("📡 Status endpoint listening on %s", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("❌ Status server failed: %v", err)
	}
}
