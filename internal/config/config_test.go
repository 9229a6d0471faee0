package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults without a file", func(t *testing.T) {
		// Given: no config file
		path := filepath.Join(t.TempDir(), "config.yml")

		// When: config is loaded
		conf, err := Load(path)

		// Then: defaults are applied
		require.NoError(t, err)
		assert.Equal(t, "info", conf.LogLevel)
		assert.True(t, conf.Multiplayer)
		assert.Equal(t, "8000", conf.Port())
		assert.Equal(t, 15*time.Second, conf.Relay.ReconnectGrace)
		assert.Equal(t, 10*time.Minute, conf.Relay.CodeTTL)
		assert.False(t, conf.Relay.AckRejections)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("File values with env override", func(t *testing.T) {
		// Given: a file and an env var for the port
		path := filepath.Join(t.TempDir(), "config.yml")
		data := []byte("log-level: debug\nport: \"9000\"\nrelay:\n  ack-rejections: true\n  reconnect-grace: 5s\n")
		require.NoError(t, os.WriteFile(path, data, 0o600))
		t.Setenv("PORT", "9100")

		// When: config is loaded
		conf, err := Load(path)

		// Then: env wins, file fills the rest
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9100", conf.Port())
		assert.True(t, conf.Relay.AckRejections)
		assert.Equal(t, 5*time.Second, conf.Relay.ReconnectGrace)
	})

	t.Run("Static only mode listens on 3000", func(t *testing.T) {
		t.Setenv("MULTIPLAYER", "false")

		conf, err := Load(filepath.Join(t.TempDir(), "config.yml"))

		require.NoError(t, err)
		assert.Equal(t, "3000", conf.Port())
	})

	t.Run("Ping interval must be shorter than pong wait", func(t *testing.T) {
		t.Setenv("RELAY_PING_INTERVAL", "2m")

		_, err := Load(filepath.Join(t.TempDir(), "config.yml"))

		assert.Error(t, err)
	})
}
