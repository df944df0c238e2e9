package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := Load()

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "sequence", cfg.Rooms.Strategy)
	assert.Equal(t, 100, cfg.Rooms.First)
	assert.Equal(t, 999, cfg.Rooms.Last)
	assert.Equal(t, 10, cfg.Rooms.MaxAttempts)
	assert.Equal(t, "guest.updates", cfg.NATS.GuestEventsSubject)
	assert.Equal(t, 5*time.Second, cfg.Bridge.RPCTimeout)
	assert.Equal(t, 64, cfg.Bridge.MaxInFlight)
	assert.Equal(t, "http://localhost:8090", cfg.Bridge.RegistryURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "BOLT")
	t.Setenv("ROOM_RANGE_START", "200")
	t.Setenv("ROOM_RANGE_END", "not-a-number")
	t.Setenv("BRIDGE_RPC_TIMEOUT", "250ms")
	t.Setenv("BRIDGE_ENABLED", "false")
	t.Setenv("REDIS_URL", "redis://cache:6379")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "bolt", cfg.Store.Driver)
	assert.Equal(t, 200, cfg.Rooms.First)
	assert.Equal(t, 999, cfg.Rooms.Last, "unparsable values fall back to defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.Bridge.RPCTimeout)
	assert.False(t, cfg.Bridge.Enabled)
	assert.Equal(t, "http://localhost:9000", cfg.Bridge.RegistryURL)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ROOM_STRATEGY=occupancy\nNATS_QUEUE_GROUP=bridges\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	// t.Setenv restores the previous state, so the keys godotenv sets are cleaned up too.
	t.Setenv("ROOM_STRATEGY", "")
	os.Unsetenv("ROOM_STRATEGY")
	t.Setenv("NATS_QUEUE_GROUP", "")
	os.Unsetenv("NATS_QUEUE_GROUP")

	cfg := Load()

	assert.Equal(t, "occupancy", cfg.Rooms.Strategy)
	assert.Equal(t, "bridges", cfg.NATS.QueueGroup)
}
