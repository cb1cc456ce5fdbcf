package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "absent")
	require.NoError(t, err)

	assert.Equal(t, 8095, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sparse", cfg.Generator.DefaultPolicy)
	assert.Equal(t, 1000, cfg.Gateway.HeartbeatInterval)
	assert.Equal(t, 10*time.Second, cfg.Gateway.ChannelOffset)
	assert.Equal(t, 24*time.Hour, cfg.Gateway.JoinDelay)
	assert.Equal(t, "uuid", cfg.Tokens.SessionKind)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "./exports", cfg.Storage.Local.BasePath)
	assert.Equal(t, "none", cfg.PubSub.Driver)
	assert.Equal(t, 3*time.Second, cfg.PubSub.Redis.ReadTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
snowflake:
  worker: 4
  process: 2
gateway:
  heartbeat_interval: 41250
pubsub:
  driver: kafka
  kafka:
    brokers: kafka:9092
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("PORT", "9100")
	t.Setenv("GENERATOR_POLICY", "dense")

	cfg, err := LoadFrom(dir, "config")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, int64(4), cfg.Snowflake.Worker)
	assert.Equal(t, int64(2), cfg.Snowflake.Process)
	assert.Equal(t, 41250, cfg.Gateway.HeartbeatInterval)
	assert.Equal(t, "dense", cfg.Generator.DefaultPolicy)
	assert.Equal(t, "kafka", cfg.PubSub.Driver)
	assert.Equal(t, "kafka:9092", cfg.PubSub.Kafka.Brokers)
}

func TestLoadAndWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))

	changes := make(chan *Config, 8)
	cfg, err := LoadAndWatch(dir, "config", func(c *Config, err error) {
		if err == nil {
			changes <- c
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	require.Eventually(t, func() bool {
		select {
		case c := <-changes:
			return c.Log.Level == "debug"
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
}
