package typeindex

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/internal/platform/config"
	"typeindex/internal/platform/logger"
)

func TestNew(t *testing.T) {
	t.Run("defaults build every component", func(t *testing.T) {
		cfg := config.Default()
		cfg.Token.SigningKey = "k"
		m, err := New(Deps{Config: cfg, Logger: logger.Discard(), Registerer: prometheus.NewRegistry()})
		require.NoError(t, err)
		assert.NotNil(t, m.Client)
		assert.NotNil(t, m.Profiles)
		assert.NotNil(t, m.Service)
		assert.NotNil(t, m.Handler)
	})

	t.Run("redis backend without client", func(t *testing.T) {
		cfg := config.Default()
		cfg.Cache.Backend = "redis"
		_, err := New(Deps{Config: cfg, Logger: logger.Discard()})
		assert.Error(t, err)
	})

	t.Run("invalid pod config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Pod.Timeout = 0
		_, err := New(Deps{Config: cfg, Logger: logger.Discard()})
		assert.Error(t, err)
	})
}
