// Package config loads the checkout API configuration from environment
// variables, with a .env file honoured in local development.
package config

import (
	"os"

	// Load .env into the environment before any variable is read.
	_ "github.com/joho/godotenv/autoload"
)

// Config is everything main() needs to wire the engine.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// OrderStore selects the order.Repository backend:
	// "memory", "sqlite" or "postgres".
	OrderStore string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// DatabaseURL is the pgx connection string for the postgres backend.
	DatabaseURL string

	// CacheBackend selects the security TTL store: "memory" or "redis".
	CacheBackend string

	// RedisAddr is the host:port of the shared cache.
	RedisAddr string
}

// Load reads the configuration, applying local-dev defaults.
func Load() Config {
	return Config{
		Port:         getEnv("PORT", "8080"),
		OrderStore:   getEnv("ORDER_STORE", "sqlite"),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/orders.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		CacheBackend: getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
