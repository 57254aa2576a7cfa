package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string
	RedisURL       string
	DatabaseURL    string

	// Poll session behaviour
	RetainDepartedVotes bool

	// Realtime transport
	IntentRatePerSecond float64
	IntentBurst         int
	SendQueueSize       int
	PingInterval        time.Duration

	// Resolved round hand-off to the archive sinks
	RoundQueueSize   int
	LatestResultsTTL time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:                getEnv("PORT", "8080"),
		AllowedOrigins:      parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Environment:         getEnv("ENVIRONMENT", "production"),
		RedisURL:            getEnv("REDIS_URL", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RetainDepartedVotes: getBoolEnv("RETAIN_DEPARTED_VOTES", true),
		IntentRatePerSecond: getFloatEnv("INTENT_RATE_PER_SECOND", 10),
		IntentBurst:         getIntEnv("INTENT_BURST", 20),
		SendQueueSize:       getIntEnv("SEND_QUEUE_SIZE", 64),
		PingInterval:        time.Duration(getIntEnv("PING_INTERVAL_SECONDS", 30)) * time.Second,
		RoundQueueSize:      getIntEnv("ROUND_QUEUE_SIZE", 32),
		LatestResultsTTL:    time.Duration(getIntEnv("LATEST_RESULTS_TTL_MINUTES", 60)) * time.Minute,
	}, nil
}

// IsDevelopment reports whether the service runs outside production
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Environment) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getIntEnv gets a positive integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// getFloatEnv gets a positive float environment variable with a fallback value
func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
