// Package config reads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	Definition     string // path to a YAML definition; empty uses the built-in quiz
	Store          string
	SessionDir     string
	Redis          RedisConfig
	SessionTTL     time.Duration
	CatalogDB      string // path to a SQLite catalog; empty uses the in-memory seed
	AllowedOrigins []string
	Debug          bool

	// EncryptionKey is a base64 AES-256 key; when set, sessions are sealed at rest.
	EncryptionKey          string
	EncryptionFallbackKeys []string
}

// RedisConfig locates the Redis server used by the redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadDotEnv loads an optional .env file. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	ttl, err := getEnvDuration("PATHQUIZ_SESSION_TTL", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:       getEnv("PATHQUIZ_PORT", "8080"),
		Definition: getEnv("PATHQUIZ_DEFINITION", ""),
		Store:      strings.ToLower(getEnv("PATHQUIZ_STORE", StoreMemory)),
		SessionDir: getEnv("PATHQUIZ_SESSION_DIR", ""),
		Redis: RedisConfig{
			Addr:     getEnv("PATHQUIZ_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("PATHQUIZ_REDIS_PASSWORD", ""),
			DB:       getEnvInt("PATHQUIZ_REDIS_DB", 0),
		},
		SessionTTL:     ttl,
		CatalogDB:      getEnv("PATHQUIZ_CATALOG_DB", ""),
		AllowedOrigins: getEnvList("PATHQUIZ_ALLOWED_ORIGINS"),
		Debug:          getEnvBool("PATHQUIZ_DEBUG", false),

		EncryptionKey:          getEnv("PATHQUIZ_ENCRYPTION_KEY", ""),
		EncryptionFallbackKeys: getEnvList("PATHQUIZ_ENCRYPTION_FALLBACK_KEYS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PATHQUIZ_PORT cannot be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PATHQUIZ_PORT must be numeric, got %q", c.Port)
	}
	switch c.Store {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("PATHQUIZ_REDIS_ADDR cannot be empty with the redis store")
		}
	default:
		return fmt.Errorf("PATHQUIZ_STORE must be one of memory, redis, file; got %q", c.Store)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("PATHQUIZ_SESSION_TTL cannot be negative")
	}
	if c.EncryptionKey == "" && len(c.EncryptionFallbackKeys) > 0 {
		return fmt.Errorf("PATHQUIZ_ENCRYPTION_FALLBACK_KEYS requires PATHQUIZ_ENCRYPTION_KEY")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
