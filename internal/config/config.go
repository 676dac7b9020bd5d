// Package config centralises configuration parsing for the companion agent.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration values for the agent.
type Config struct {
	HTTPAddress     string
	APIBaseURL      string
	APITimeout      time.Duration
	APIRateLimit    float64 // requests per second budget for manual fetches
	APIRateBurst    int
	StoreBackend    string // memory | file | redis
	StorePath       string
	RedisURL        string
	RedisPrefix     string
	Exercise        string        // exercise type the readiness poller watches
	TrackerInterval time.Duration // elapsed-time tick
	PollInterval    time.Duration // feedback readiness poll
	BackgroundGrace time.Duration // delay before auto checkout fires
	InactivityLimit time.Duration // forced logout after no interaction
}

// Load reads environment variables into Config, applying sensible defaults
// for local dev. A .env file beside the binary is honoured when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddress:     getEnv("HTTP_ADDRESS", ":8090"),
		APIBaseURL:      getEnv("WORKOUT_API_URL", "http://localhost:8000"),
		APITimeout:      getDurationEnv("WORKOUT_API_TIMEOUT", 10*time.Second),
		APIRateLimit:    getFloatEnv("WORKOUT_API_RATE", 5),
		APIRateBurst:    getIntEnv("WORKOUT_API_BURST", 10),
		StoreBackend:    getEnv("STORE_BACKEND", "file"),
		StorePath:       getEnv("STORE_PATH", "session.json"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:     getEnv("REDIS_PREFIX", "gymsession"),
		Exercise:        getEnv("EXERCISE", "squat"),
		TrackerInterval: getDurationEnv("TRACKER_INTERVAL", time.Second),
		PollInterval:    getDurationEnv("FEEDBACK_POLL_INTERVAL", 5*time.Second),
		BackgroundGrace: getDurationEnv("BACKGROUND_GRACE", 5*time.Minute),
		InactivityLimit: getDurationEnv("INACTIVITY_LIMIT", 24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
