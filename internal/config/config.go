package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
	SessionStoreSQLite = "sqlite"
)

type Config struct {
	AppEnv   string
	Host     string
	Port     string
	LogLevel string

	Mongo MongoConfig

	SessionSecret     []byte
	// EphemeralSecret is set when SessionSecret was generated at startup.
	EphemeralSecret   bool
	SessionStore      string
	RedisURL          string
	SessionSQLitePath string
	SessionTTL        time.Duration
	CookieSecure      bool

	PublicDir      string
	MaxUploadBytes int64
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) Production() bool {
	return c.AppEnv == EnvProduction
}

// Load reads an optional .env file and then the environment. Missing
// required values are returned as one error listing all of them.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:            strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "3000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Mongo:             *NewMongoConfig(),
		SessionStore:      strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		RedisURL:          getEnv("REDIS_URL", ""),
		SessionSQLitePath: getEnv("SESSION_SQLITE_PATH", "./data/sessions.db"),
		PublicDir:         getEnv("PUBLIC_DIR", "./public"),
	}

	var problems []string

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not a valid level", cfg.LogLevel))
	}
	if cfg.Mongo.URI == "" {
		problems = append(problems, "MONGODB_URI is required")
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "168h"))
	if err != nil || ttl <= 0 {
		problems = append(problems, "SESSION_TTL must be a positive duration")
	}
	cfg.SessionTTL = ttl

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "10485760"), 10, 64)
	if err != nil || maxUpload <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be a positive integer")
	}
	cfg.MaxUploadBytes = maxUpload

	secure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", strconv.FormatBool(cfg.Production())))
	if err != nil {
		problems = append(problems, "COOKIE_SECURE must be a boolean")
	}
	cfg.CookieSecure = secure

	switch cfg.SessionStore {
	case SessionStoreMemory, SessionStoreSQLite:
	case SessionStoreRedis:
		if cfg.RedisURL == "" {
			problems = append(problems, "REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("SESSION_STORE %q is not one of memory, redis, sqlite", cfg.SessionStore))
	}

	if secret := getEnv("SESSION_SECRET", ""); secret != "" {
		cfg.SessionSecret = []byte(secret)
	} else if cfg.Production() {
		problems = append(problems, "SESSION_SECRET is required in production")
	} else {
		cfg.SessionSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.SessionSecret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.EphemeralSecret = true
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}
