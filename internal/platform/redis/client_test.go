package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	c, err := New(t.Context(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestOptions(t *testing.T) {
	t.Run("applies overrides", func(t *testing.T) {
		opts, err := options(config.RedisConfig{
			URL:         "redis://cache.internal:6380/2",
			PoolSize:    20,
			DialTimeout: 3 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, "cache.internal:6380", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 20, opts.PoolSize)
		assert.Equal(t, 3*time.Second, opts.DialTimeout)
		assert.Equal(t, clientName, opts.ClientName)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := options(config.RedisConfig{URL: "http://nope"})
		assert.ErrorContains(t, err, "parse redis URL")
	})
}
