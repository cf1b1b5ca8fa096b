package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/jwt-builder/internal/expiry"
)

// Catalog sources.
const (
	CatalogSourceEmbedded = "embedded"
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"
)

// Session stores.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Builder  BuilderConfig
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

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig guards the builder API. An empty hash disables the gate.
type AuthConfig struct {
	OperatorUser         string
	OperatorPasswordHash string
}

// BuilderConfig controls the token builder itself.
type BuilderConfig struct {
	CatalogSource     string
	CatalogPath       string
	SessionStore      string
	SessionTTLMinutes int
	SecretEnv         string
	DefaultExpiry     string
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
			Name:                  getEnv("APP_NAME", "jwt-builder"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "jwt-builder:session:"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			OperatorUser:         getEnv("AUTH_OPERATOR_USER", "operator"),
			OperatorPasswordHash: os.Getenv("AUTH_OPERATOR_PASSWORD_HASH"),
		},
		Builder: BuilderConfig{
			CatalogSource:     getEnv("BUILDER_CATALOG_SOURCE", CatalogSourceEmbedded),
			CatalogPath:       os.Getenv("BUILDER_CATALOG_PATH"),
			SessionStore:      getEnv("BUILDER_SESSION_STORE", SessionStoreMemory),
			SessionTTLMinutes: getEnvAsInt("BUILDER_SESSION_TTL_MINUTES", 120),
			SecretEnv:         getEnv("BUILDER_SECRET_ENV", "JWT_BUILDER_SECRET"),
			DefaultExpiry:     getEnv("BUILDER_DEFAULT_EXPIRY", "1y"),
		},
	}

	if err := cfg.Builder.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b BuilderConfig) validate() error {
	switch b.CatalogSource {
	case CatalogSourceEmbedded, CatalogSourcePostgres:
	case CatalogSourceFile:
		if b.CatalogPath == "" {
			return fmt.Errorf("BUILDER_CATALOG_PATH required for catalog source %q", b.CatalogSource)
		}
	default:
		return fmt.Errorf("invalid BUILDER_CATALOG_SOURCE: %q", b.CatalogSource)
	}
	switch b.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("invalid BUILDER_SESSION_STORE: %q", b.SessionStore)
	}
	if !expiry.Valid(b.DefaultExpiry) {
		return fmt.Errorf("invalid BUILDER_DEFAULT_EXPIRY: %q", b.DefaultExpiry)
	}
	return nil
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

// SessionTTL returns how long idle builder sessions are kept.
func (b BuilderConfig) SessionTTL() time.Duration {
	if b.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(b.SessionTTLMinutes) * time.Minute
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
