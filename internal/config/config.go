// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the process configuration, read once at startup from the
// environment (a .env file is loaded by the godotenv autoload import in
// cmd/server).
type Config struct {
	Port         string
	StoreBackend string // "memory", "postgres" or "redis"
	PostgresURL  string
	RedisAddr    string
	RedisDB      int

	// DecisionTimeout bounds one automated player's decision before the
	// coordinator degrades to the fallback move.
	DecisionTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		StoreBackend:    getEnv("STORE_BACKEND", "memory"),
		PostgresURL:     postgresURL(),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		DecisionTimeout: time.Duration(getEnvInt("DECISION_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}

func postgresURL() string {
	if url := os.Getenv("POSTGRES_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", "postgres"),
		getEnv("PG_HOST", "localhost"),
		getEnv("PG_PORT", "5432"),
		getEnv("PG_DATABASE", "mayi"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
