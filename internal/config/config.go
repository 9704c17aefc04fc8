package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the environment-derived settings for the server.
type Config struct {
	DatabaseURL    string
	ServerPort     string
	AllowedOrigins string
	JWTSecret      string
	OpenAIKey      string
	LogLevel       string
	LogFormat      string
}

// Load reads .env if present and resolves the configuration from the
// environment. Only DATABASE_URL and JWT_SECRET are mandatory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerPort:     getenv("SERVER_PORT", "8080"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
