package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "9090"
  cors_origins: ["http://localhost:3000"]
log:
  level: debug
auth:
  jwt_secret: from-file
postgres:
  url: postgres://tq:tq@localhost:5432/truthquest?sslmode=disable
content:
  ttl: 2m
`

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("TRUTHQUEST_AUTH_JWT_SECRET", "from-env")
	t.Setenv("TRUTHQUEST_REDIS_ADDR", "localhost:6380")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Contains(t, cfg.Postgres.URL, "truthquest")
	assert.Equal(t, 2*time.Minute, TTLDuration(cfg.Content.TTL, time.Minute))
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("TRUTHQUEST_SERVER_PORT", "7000")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
}

func TestTTLDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
	assert.Equal(t, 30*time.Second, TTLDuration("30s", time.Minute))
}
