// Package pricefeed provides price data structures and interfaces for the price bot
package pricefeed

import "context"

// Quote represents one price sample for the tracked asset
type Quote struct {
	USD       float64 // Current price in USD
	Change24h float64 // 24h change in percent, may be negative
	CoinID    string  // CoinGecko id the sample was obtained from
}

// Fetcher defines the interface for services that acquire a fresh price quote
type Fetcher interface {
	// Acquire fetches one quote, walking fallback sources with retries
	Acquire(ctx context.Context) (Quote, error)
}
