package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Snapshot     SnapshotConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	SMTP         SMTPConfig
	Assistant    AssistantConfig
	Notification NotificationConfig
	Assignment   AssignmentConfig
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

// SnapshotConfig selects the snapshot backend holding the entity collections.
// Backend is one of "memory", "redis", "postgres".
type SnapshotConfig struct {
	Backend   string
	KeyPrefix string
}

// PostgresConfig holds DB connection values for the postgres snapshot backend.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for the redis snapshot backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. MasterPassword gates the
// internal developer/admin login; the endpoint is disabled when empty.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	MasterPassword        string
}

// SMTPConfig configures the outbound mail transport. When Host is empty the
// simulated sender is used instead.
type SMTPConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	From             string
	SimulatedDelayMS int
}

// AssistantConfig configures the text-generation collaborator. When APIKey is
// empty every call returns its canned fallback.
type AssistantConfig struct {
	APIKey string
	Model  string
}

// NotificationConfig holds the optional event webhook endpoint.
type NotificationConfig struct {
	WebhookURL string
}

// AssignmentConfig names the developers targeted by the per-type assignment
// rules before round-robin kicks in.
type AssignmentConfig struct {
	ProgramIssueAssignee string
	UnlockAssignee       string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-hub"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Snapshot: SnapshotConfig{
			Backend:   getEnv("SNAPSHOT_BACKEND", "memory"),
			KeyPrefix: getEnv("SNAPSHOT_KEY_PREFIX", "supporthub:"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MasterPassword:        os.Getenv("AUTH_MASTER_PASSWORD"),
		},
		SMTP: SMTPConfig{
			Host:             os.Getenv("SMTP_HOST"),
			Port:             getEnvAsInt("SMTP_PORT", 587),
			Username:         os.Getenv("SMTP_USERNAME"),
			Password:         os.Getenv("SMTP_PASSWORD"),
			From:             getEnv("SMTP_FROM", "support@metallic.com"),
			SimulatedDelayMS: getEnvAsInt("SMTP_SIMULATED_DELAY_MS", 500),
		},
		Assistant: AssistantConfig{
			APIKey: os.Getenv("ASSISTANT_API_KEY"),
			Model:  getEnv("ASSISTANT_MODEL", "gpt-4o"),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Assignment: AssignmentConfig{
			ProgramIssueAssignee: getEnv("ASSIGN_PROGRAM_ISSUE_DEVELOPER", "Karim"),
			UnlockAssignee:       getEnv("ASSIGN_UNLOCK_DEVELOPER", "Mariam"),
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

// SimulatedDelay returns the artificial latency of the simulated mail sender.
func (s SMTPConfig) SimulatedDelay() time.Duration {
	if s.SimulatedDelayMS <= 0 {
		return 0
	}
	return time.Duration(s.SimulatedDelayMS) * time.Millisecond
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
