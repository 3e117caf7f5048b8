package config

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve in minimal images
)

// Backend selectors.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMinIO    = "minio"
	BackendRedis    = "redis"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	// ConnectAttempts is how many startup pings are tried before giving up.
	ConnectAttempts int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds the connection used by the redis session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig selects where workspaces live and how long an idle one survives.
type SessionConfig struct {
	Backend string
	TTLSec  int
	// SweepSchedule is a cron schedule for the memory store janitor.
	SweepSchedule string
}

func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// AssistantConfig configures the classification assistant. An empty APIKey disables it.
type AssistantConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	TimeoutSec         int
	RatePerSecond      float64
	Burst              int
	BreakerMaxFailures int
	BreakerOpenSec     int
}

func (c AssistantConfig) Enabled() bool {
	return c.APIKey != ""
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Timezone       string
	LogLevel       string
	DefaultCreator string
	// SeedDemo preloads the demo documents into an empty memory store.
	SeedDemo bool
	// StoreBackend is memory or postgres; ObjectStore is memory or minio.
	StoreBackend string
	ObjectStore  string
	Database     DatabaseConfig
	MinIO        MinIOConfig
	Redis        RedisConfig
	Session      SessionConfig
	Assistant    AssistantConfig
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"), // default only for non-sensitive value
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Shanghai"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DefaultCreator: getEnv("DEFAULT_CREATOR", "当前用户"),
		SeedDemo:       getEnvBool("SEED_DEMO_DATA", true),
		StoreBackend:   getEnv("STORE_BACKEND", BackendMemory),
		ObjectStore:    getEnv("OBJECT_STORE", BackendMemory),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectAttempts:    getEnvInt("DB_CONNECT_ATTEMPTS", 3),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Backend:       getEnv("SESSION_BACKEND", BackendMemory),
			TTLSec:        getEnvInt("SESSION_TTL_SEC", 1800),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 1m"),
		},
		Assistant: AssistantConfig{
			APIKey:             getEnv("GEMINI_API_KEY", ""),
			BaseURL:            getEnv("GEMINI_BASE_URL", ""),
			Model:              getEnv("GEMINI_MODEL", ""),
			TimeoutSec:         getEnvInt("AI_TIMEOUT_SEC", 20),
			RatePerSecond:      getEnvFloat("AI_RATE_PER_SEC", 2),
			Burst:              getEnvInt("AI_BURST", 4),
			BreakerMaxFailures: getEnvInt("AI_BREAKER_MAX_FAILURES", 5),
			BreakerOpenSec:     getEnvInt("AI_BREAKER_OPEN_SEC", 30),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
