package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STORE_BACKEND", BackendPostgres)
	t.Setenv("SESSION_BACKEND", BackendRedis)
	t.Setenv("SESSION_TTL_SEC", "60")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("AI_RATE_PER_SEC", "0.5")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, BackendMemory, cfg.ObjectStore)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, time.Minute, cfg.Session.TTL())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Assistant.Enabled())
	assert.Equal(t, 0.5, cfg.Assistant.RatePerSecond)
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_BACKEND", "OBJECT_STORE", "SESSION_BACKEND", "SESSION_TTL_SEC", "GEMINI_API_KEY", "DEFAULT_CREATOR", "SEED_DEMO_DATA", "DB_CONNECT_ATTEMPTS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, BackendMemory, cfg.ObjectStore)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL())
	assert.Equal(t, "当前用户", cfg.DefaultCreator)
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, 3, cfg.Database.ConnectAttempts)
	assert.False(t, cfg.Assistant.Enabled())
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{Timezone: "Asia/Shanghai"}
	assert.Equal(t, "Asia/Shanghai", cfg.Location().String())

	cfg.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvFloat(t *testing.T) {
	key := "TEST_FLOAT_VAR"

	t.Setenv(key, "1.5")
	assert.Equal(t, 1.5, getEnvFloat(key, 0))

	t.Setenv(key, "x")
	assert.Equal(t, 2.0, getEnvFloat(key, 2))
}
