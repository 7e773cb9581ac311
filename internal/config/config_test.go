package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.APIServer.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, "/ws/notifications", cfg.NotifyServer.WebSocketPath)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:8000", cfg.APIServer.Addr())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
DATABASE:
  TYPE: memory
  PORT: 6543
AUTH:
  JWT_EXPIRY: 30m
API_SERVER:
  PORT: "9000"
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("AUTH_JWT_SECRET_KEY", "from-env")
	t.Setenv("API_SERVER_PORT", "9100")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Type)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.JWTExpiry)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecretKey)
	assert.Equal(t, "9100", cfg.APIServer.Port, "environment wins over the file")
}
