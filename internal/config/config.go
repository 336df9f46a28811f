// Package config provides configuration for the relay service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the relay configuration, loaded from environment variables.
type Config struct {
	// Server settings
	Addr string // listen address for the HTTP/WebSocket server

	// Model service settings
	AnthropicAPIKey string
	Model           string
	MaxTokens       int
	SystemPrompt    string
	MaxRounds       int // model round-trips allowed per user turn

	// Audit settings
	EventDBPath string // empty disables the audit database

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Addr:            getEnv("RELAY_ADDR", ":8000"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		Model:           getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		MaxTokens:       getEnvInt("RELAY_MAX_TOKENS", 1024),
		SystemPrompt:    getEnv("RELAY_SYSTEM_PROMPT", "You are a helpful AI assistant. Use tools when appropriate."),
		MaxRounds:       getEnvInt("RELAY_MAX_ROUNDS", 8),
		EventDBPath:     getEnv("RELAY_EVENT_DB", "relay.db"),
		PingInterval:    time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:    time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:     time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 120000)) * time.Millisecond,
		MaxMessageSize:  int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
