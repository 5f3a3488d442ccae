package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/query-cache/pkg/cache"
	"github.com/Sternrassler/query-cache/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)
	assert.Equal(t, "query_cache", cfg.Mongo.Database)
	assert.Equal(t, "products", cfg.Mongo.Collection)
	assert.Equal(t, cache.DefaultTTL, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Second, cfg.Query.Timeout)
	assert.False(t, cfg.Query.StrictWriteBack)
	assert.False(t, cfg.Query.CoalesceMisses)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Trace.Stdout)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("QUERY_CACHE_REDIS_ADDR", "localhost:6380")
	t.Setenv("QUERY_CACHE_CACHE_TTL", "2m")
	t.Setenv("QUERY_CACHE_QUERY_STRICT_WRITE_BACK", "true")
	t.Setenv("QUERY_CACHE_RETRY_MAX_ATTEMPTS", "3")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Query.StrictWriteBack)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query-cache.yaml")
	content := `
http:
  addr: ":8080"
mongo:
  uri: "mongodb://db.internal:27017"
  database: catalog
query:
  coalesce_misses: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Mongo.URI)
	assert.Equal(t, "catalog", cfg.Mongo.Database)
	assert.Equal(t, "products", cfg.Mongo.Collection)
	assert.True(t, cfg.Query.CoalesceMisses)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query-cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis:\n  addr: file:6379\n"), 0o600))
	t.Setenv("QUERY_CACHE_REDIS_ADDR", "env:6379")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "env:6379", cfg.Redis.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "empty redis addr", key: "redis.addr", val: ""},
		{name: "bad mongo uri", key: "mongo.uri", val: "postgres://db"},
		{name: "zero ttl", key: "cache.ttl", val: "0s"},
		{name: "sub-second ttl", key: "cache.ttl", val: "500ms"},
		{name: "negative timeout", key: "query.timeout", val: "-1s"},
		{name: "unknown log level", key: "log.level", val: "verbose"},
		{name: "zero attempts", key: "retry.max_attempts", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.val)

			_, err := Load(v, "")
			require.Error(t, err)
			assert.True(t, IsValidationError(err), "expected a validation error, got %v", err)
		})
	}
}

func TestConversions(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	t.Run("retry disabled by default", func(t *testing.T) {
		assert.Equal(t, 1, cfg.RetryPolicy().MaxAttempts)
	})

	t.Run("retry enabled", func(t *testing.T) {
		c := cfg
		c.Retry.MaxAttempts = 4
		policy := c.RetryPolicy()
		assert.Equal(t, 4, policy.MaxAttempts)
		assert.Equal(t, c.Retry.InitialBackoff, policy.InitialBackoff)
	})

	t.Run("service", func(t *testing.T) {
		c := cfg
		c.Query.CoalesceMisses = true
		svc := c.Service()
		assert.Equal(t, cache.DefaultTTL, svc.TTL)
		assert.True(t, svc.CoalesceMisses)
		assert.NotNil(t, svc.Now)
	})

	t.Run("logging", func(t *testing.T) {
		c := cfg
		c.Log.Level = "warn"
		assert.Equal(t, logging.LevelWarn, c.Logging().Level)
	})

	t.Run("records", func(t *testing.T) {
		assert.Len(t, cfg.Records(), 5)
	})
}
