// Package config provides configuration management for the price bot
package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration
type Config struct {
	Token           string `envconfig:"TOKEN" required:"true"`                                                  // Discord bot token
	GuildID         string `envconfig:"GUILD_ID"`                                                               // Optional: restrict updates to this guild
	CoinIDs         string `envconfig:"COINGECKO_IDS" default:"ripple,xrp"`                                     // Comma-separated fallback CoinGecko ids, primary first
	IntervalSeconds int    `envconfig:"INTERVAL_SECONDS" default:"60"`                                          // Update loop interval in seconds
	GeckoURL        string `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3/coins/markets"` // CoinGecko markets endpoint
	StatusAddr      string `envconfig:"STATUS_ADDR"`                                                            // Optional: listen address for the HTTP status endpoint
}

// Option is a function that modifies Config
type Option func(*Config) error

// WithEnvFile loads configuration from a .env file
func WithEnvFile(path string) Option {
	return func(c *Config) error {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}
}

// WithInterval sets the update loop interval in seconds
func WithInterval(seconds int) Option {
	return func(c *Config) error {
		c.IntervalSeconds = seconds
		return nil
	}
}

// validate performs validation on the config values
func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("bot token is required")
	}

	// Validate guild id (Discord snowflakes are decimal strings)
	if c.GuildID != "" && !isDigits(c.GuildID) {
		return fmt.Errorf("GUILD_ID must be numeric if provided: %s", c.GuildID)
	}

	if c.IntervalSeconds < 1 {
		return fmt.Errorf("interval must be at least 1 second, got %d", c.IntervalSeconds)
	}

	if _, err := url.ParseRequestURI(c.GeckoURL); err != nil {
		return fmt.Errorf("invalid CoinGecko URL: %s", c.GeckoURL)
	}

	// Validate coin ids: the fallback list must never be empty
	if len(c.CoinIDList()) == 0 {
		return fmt.Errorf("no CoinGecko ids specified")
	}

	return nil
}

// isDigits checks if a string is all decimal digits
func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// NewConfig creates a new validated Config instance
func NewConfig(opts ...Option) (*Config, error) {
	var cfg Config

	// Process environment variables first
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// Apply user options last so they take precedence
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			log.Printf("⚠️ Warning: option application failed: %v", err)
		}
	}

	// Validate the configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// CoinIDList returns the ordered CoinGecko ids as a slice, primary first.
// Blank entries are dropped.
func (c *Config) CoinIDList() []string {
	parts := strings.Split(c.CoinIDs, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
