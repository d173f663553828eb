package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_DRIVER", "AUDIT_SINK", "DEFINITION_CACHE_TTL", "CORS_ORIGINS", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "sql", cfg.AuditSink)
	assert.Equal(t, 10*time.Minute, cfg.DefinitionCacheTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.MetricsEnabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DEFINITION_CACHE_TTL", "90s")
	t.Setenv("METRICS_ENABLED", "no")

	cfg := FromEnv()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.DefinitionCacheTTL)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_FORMAT=json\nHTTP_ADDR=:9999\n"), 0o600))

	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("LOG_FORMAT"))
	t.Cleanup(func() { _ = os.Unsetenv("LOG_FORMAT") })

	cfg := Load(path)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "json", cfg.LogFormat)
}
