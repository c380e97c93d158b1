package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	// Test case 1: Test with environment variables
	t.Run("with environment variables", func(t *testing.T) {
		t.Setenv("TOKEN", "test-token")
		t.Setenv("GUILD_ID", "123456789012345678")
		t.Setenv("COINGECKO_IDS", "ripple, xrp")
		t.Setenv("INTERVAL_SECONDS", "30")
		t.Setenv("COINGECKO_URL", "http://test.com/markets")

		cfg, err := NewConfig()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		// Verify all fields
		assert.Equal(t, "test-token", cfg.Token)
		assert.Equal(t, "123456789012345678", cfg.GuildID)
		assert.Equal(t, 30, cfg.IntervalSeconds)
		assert.Equal(t, "http://test.com/markets", cfg.GeckoURL)
		assert.Equal(t, []string{"ripple", "xrp"}, cfg.CoinIDList())
	})

	// Test case 2: Defaults kick in when only the token is set
	t.Run("with defaults", func(t *testing.T) {
		t.Setenv("TOKEN", "test-token")

		cfg, err := NewConfig()
		assert.NoError(t, err)
		assert.Equal(t, 60, cfg.IntervalSeconds)
		assert.Equal(t, []string{"ripple", "xrp"}, cfg.CoinIDList())
		assert.Equal(t, "https://api.coingecko.com/api/v3/coins/markets", cfg.GeckoURL)
		assert.Empty(t, cfg.GuildID)
	})

	// Test case 3: Missing token is startup-fatal
	t.Run("with missing token", func(t *testing.T) {
		t.Setenv("TOKEN", "")

		cfg, err := NewConfig()
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	// Test case 4: Malformed guild id is startup-fatal
	t.Run("with malformed guild id", func(t *testing.T) {
		t.Setenv("TOKEN", "test-token")
		t.Setenv("GUILD_ID", "not-a-snowflake")

		cfg, err := NewConfig()
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "GUILD_ID")
	})

	// Test case 5: Empty coin id list is rejected
	t.Run("with empty coin id list", func(t *testing.T) {
		t.Setenv("TOKEN", "test-token")
		t.Setenv("COINGECKO_IDS", " , ")

		cfg, err := NewConfig()
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	// Test case 6: Interval below one second is rejected
	t.Run("with zero interval", func(t *testing.T) {
		t.Setenv("TOKEN", "test-token")
		t.Setenv("INTERVAL_SECONDS", "0")

		cfg, err := NewConfig()
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestWithInterval(t *testing.T) {
	t.Setenv("TOKEN", "test-token")

	cfg, err := NewConfig(WithInterval(5))
	assert.NoError(t, err)
	assert.Equal(t, 5, cfg.IntervalSeconds)
}

func TestCoinIDList(t *testing.T) {
	cfg := Config{CoinIDs: "ripple,  xrp ,,bitcoin"}
	assert.Equal(t, []string{"ripple", "xrp", "bitcoin"}, cfg.CoinIDList())
}
