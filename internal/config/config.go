package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AppConfig carries everything the server needs from the environment.
type AppConfig struct {
	HTTPAddr     string
	StoreBackend string // "memory" or "postgres"
	JWTSecret    string
	JWTTTL       time.Duration
	KafkaBrokers []string
	EventsTopic  string
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:       getEnvDuration("JWT_TTL", time.Hour),
		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", nil),
		EventsTopic:  getEnv("EVENTS_TOPIC", "transaction_posted"),
	}
}

// DatabaseURL assembles the postgres DSN from its parts.
func DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "bankapp"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		return strings.Split(v, ",")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
