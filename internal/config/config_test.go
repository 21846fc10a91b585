package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Reads the file", func(t *testing.T) {
		// Given: a config file using the redis driver and a match ttl
		path := writeConfig(t, `
log-level: debug
http-port: "8080"
socket-port: "4000"
debug-locks: true
broadcast:
  driver: redis
  channel-prefix: "rooms:"
redis:
  host: cache
  port: "6380"
registry:
  match-ttl: 30m
  sweep-interval: 30s
`)

		// When: loading it
		conf, err := Load(path)

		// Then: every field is read
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, "4000", conf.SocketPort)
		assert.True(t, conf.DebugLocks)
		assert.Equal(t, DriverRedis, conf.Broadcast.Driver)
		assert.Equal(t, "rooms:", conf.Broadcast.ChannelPrefix)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 30*time.Minute, conf.Registry.MatchTTL)
		assert.Equal(t, 30*time.Second, conf.Registry.SweepInterval)
	})

	t.Run("Missing file falls back to env and defaults", func(t *testing.T) {
		t.Setenv("SOCKET_PORT", "3100")

		// When: loading a path that does not exist
		conf, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		// Then: defaults apply, env overrides them
		require.NoError(t, err)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "3100", conf.SocketPort)
		assert.Equal(t, DriverLocal, conf.Broadcast.Driver)
		assert.Equal(t, "tictactoe:room:", conf.Broadcast.ChannelPrefix)
		assert.Equal(t, time.Duration(0), conf.Registry.MatchTTL)
		assert.Equal(t, time.Minute, conf.Registry.SweepInterval)
	})

	t.Run("Unknown driver is rejected", func(t *testing.T) {
		path := writeConfig(t, "broadcast:\n  driver: kafka\n")

		_, err := Load(path)

		require.ErrorIs(t, err, ErrUnknownDriver)
	})

	t.Run("TTL with a negative sweep interval is rejected", func(t *testing.T) {
		path := writeConfig(t, "registry:\n  match-ttl: 1m\n  sweep-interval: -1s\n")

		_, err := Load(path)

		require.Error(t, err)
	})
}

func TestMustLoad_Panics(t *testing.T) {
	path := writeConfig(t, "broadcast:\n  driver: kafka\n")

	assert.Panics(t, func() { MustLoad(path) })
}
