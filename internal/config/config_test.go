package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  name: faceid
  user: faceid
  password: secret
nats:
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, 128, cfg.Vision.EmbeddingDim)
	assert.Equal(t, 0.5, cfg.Vision.DetectionThreshold)
	assert.Equal(t, 0.6, cfg.Vision.MatchThreshold)
	assert.Equal(t, 4, cfg.Pipeline.WorkerCount)
	assert.Equal(t, 3, cfg.Pipeline.StepRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.StepTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.StaleClaimTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.SweepInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  api_key: sekrit
vision:
  embedding_dim: 512
  match_threshold: 0.75
pipeline:
  worker_count: 8
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sekrit", cfg.Server.APIKey)
	assert.Equal(t, 512, cfg.Vision.EmbeddingDim)
	assert.Equal(t, 0.75, cfg.Vision.MatchThreshold)
	assert.Equal(t, 8, cfg.Pipeline.WorkerCount)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FACEID_DB_HOST", "db.internal")
	t.Setenv("FACEID_DB_PORT", "5433")
	t.Setenv("FACEID_MATCH_THRESHOLD", "0.8")
	t.Setenv("FACEID_WORKER_COUNT", "16")
	t.Setenv("FACEID_STALE_CLAIM_TIMEOUT", "30m")

	path := writeConfig(t, `
database:
  host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 0.8, cfg.Vision.MatchThreshold)
	assert.Equal(t, 16, cfg.Pipeline.WorkerCount)
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.StaleClaimTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, Name: "n", User: "u", Password: "p"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", d.DSN())
}
