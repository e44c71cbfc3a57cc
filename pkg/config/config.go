package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration resolved from the environment.
type Config struct {
	Port               string
	CORSAllowedOrigins string
	DBPath             string
	SweepInterval      time.Duration
	IdleTimeout        time.Duration
}

// Load reads configuration from a .env file (if present) and the
// process environment, falling back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] Skipping .env file: %v", err)
	}

	return &Config{
		Port:               getEnv("PORT", "3000"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"),
		DBPath:             getEnv("DB_PATH", "chatroom.db"),
		SweepInterval:      getDuration("SWEEP_INTERVAL", 5*time.Minute),
		IdleTimeout:        getDuration("IDLE_TIMEOUT", 30*time.Minute),
	}
}

// getEnv reads an environment variable and returns its value or a default value.
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

// getDuration reads a duration environment variable (e.g. "5m", "30s").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("[config] Invalid duration for %s=%q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
