package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Workflow     WorkflowConfig
	Stats        StatsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig selects the entity store backend.
type StoreConfig struct {
	Driver string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token validation parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig controls the dispatcher pool and delivery channels.
type NotificationConfig struct {
	EmailFrom             string
	WebhookURL            string
	WebhookTimeoutSeconds int
	Workers               int
	QueueSize             int
}

// WorkflowConfig holds ticket lifecycle switches.
type WorkflowConfig struct {
	FeedbackAllowClosed bool
}

// StatsConfig controls aggregate caching.
type StatsConfig struct {
	CacheTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	dsn := os.Getenv("POSTGRES_DSN")
	defaultDriver := StoreDriverMemory
	if dsn != "" {
		defaultDriver = StoreDriverPostgres
	}
	driver := strings.ToLower(getEnv("STORE_DRIVER", defaultDriver))
	if driver != StoreDriverPostgres && driver != StoreDriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", driver)
	}
	if driver == StoreDriverPostgres && dsn == "" {
		return nil, fmt.Errorf("STORE_DRIVER=postgres requires POSTGRES_DSN")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "service-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Driver: driver,
		},
		Postgres: PostgresConfig{
			DSN:            dsn,
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			EmailFrom:             getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:            getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookTimeoutSeconds: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 5),
			Workers:               getEnvAsInt("NOTIFY_WORKERS", 4),
			QueueSize:             getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
		Workflow: WorkflowConfig{
			FeedbackAllowClosed: getEnvAsBool("FEEDBACK_ALLOW_CLOSED", false),
		},
		Stats: StatsConfig{
			CacheTTLSeconds: getEnvAsInt("STATS_CACHE_TTL_SECONDS", 300),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// WebhookTimeout returns the per-request webhook timeout.
func (n NotificationConfig) WebhookTimeout() time.Duration {
	if n.WebhookTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.WebhookTimeoutSeconds) * time.Second
}

// CacheTTL returns how long aggregate stats stay cached.
func (s StatsConfig) CacheTTL() time.Duration {
	if s.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
