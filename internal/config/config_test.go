package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, ":8080", cfg.Addr())
		assert.Equal(t, int64(10*1024*1024), cfg.UploadMaxBytes)
		assert.Equal(t, "mock", cfg.Transform.Mode)
		assert.Equal(t, 1500*time.Millisecond, cfg.Transform.MockDelay)
		assert.True(t, cfg.Transform.Fallback)
		assert.Equal(t, "https://publisher-devnet.walrus.space", cfg.Storage.WalrusPublisherURL)
		assert.Equal(t, "https://aggregator-devnet.walrus.space", cfg.Storage.WalrusAggregatorURL)
		assert.Equal(t, "mock", cfg.Mint.Mode)
		assert.Equal(t, 30, cfg.Analytics.RetentionDays)
		assert.Equal(t, 5, cfg.FlowCredits)
		assert.Empty(t, cfg.Redis.Addr)
		assert.Equal(t, 30, cfg.RateLimitPerMinute)
		assert.Equal(t, "0xf8d6e0586b0a20c7", cfg.Mint.ContractOwner)
	})

	t.Run("overrides from environment", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("TRANSFORM_MOCK_DELAY", "10ms")
		t.Setenv("PINATA_API_KEY", "key")
		t.Setenv("FLOW_CREDITS", "2")
		t.Setenv("WS_ORIGIN_PATTERNS", "localhost:3000,*.mintari.app")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Addr())
		assert.Equal(t, 10*time.Millisecond, cfg.Transform.MockDelay)
		assert.Equal(t, "key", cfg.Storage.PinataAPIKey)
		assert.Equal(t, 2, cfg.FlowCredits)
		assert.Equal(t, []string{"localhost:3000", "*.mintari.app"}, cfg.WSOriginPatterns)
	})

	t.Run("http transform requires an api url", func(t *testing.T) {
		t.Setenv("TRANSFORM_MODE", "http")
		_, err := Load()
		assert.ErrorContains(t, err, "TRANSFORM_API_URL")
	})

	t.Run("solana mint requires a keypair", func(t *testing.T) {
		t.Setenv("MINT_MODE", "solana")
		_, err := Load()
		assert.ErrorContains(t, err, "SOLANA_MINT_KEYPAIR")
	})

	t.Run("unknown mode is rejected", func(t *testing.T) {
		t.Setenv("MINT_MODE", "flow")
		_, err := Load()
		assert.Error(t, err)
	})
}
