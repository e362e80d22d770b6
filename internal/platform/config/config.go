// Package config loads application configuration from environment variables.
// All variables use the SKILLFORGE_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Quiz     QuizConfig
	Auth     AuthConfig
	Log      LogConfig
	SeedPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL
// means run on in-memory stores.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables
// the cache; reminder dedup and report caching degrade gracefully.
type CacheConfig struct {
	URL string
}

// QuizConfig holds quiz generation settings.
type QuizConfig struct {
	GeminiAPIKey string
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with SKILLFORGE_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SKILLFORGE_SERVER_PORT", 8080),
			Host: envStr("SKILLFORGE_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("SKILLFORGE_DATABASE_URL", ""),
			MaxConns: envInt("SKILLFORGE_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("SKILLFORGE_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("SKILLFORGE_CACHE_URL", ""),
		},
		Quiz: QuizConfig{
			GeminiAPIKey: envStr("SKILLFORGE_QUIZ_GEMINI_API_KEY", ""),
		},
		Auth: AuthConfig{
			JWTSecret: envStr("SKILLFORGE_AUTH_JWT_SECRET", ""),
		},
		Log: LogConfig{
			Level:  envStr("SKILLFORGE_LOG_LEVEL", "info"),
			Format: envStr("SKILLFORGE_LOG_FORMAT", "json"),
		},
		SeedPath: envStr("SKILLFORGE_SEED_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("SKILLFORGE_AUTH_JWT_SECRET is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SKILLFORGE_SERVER_PORT must be a valid port, got %d", c.Server.Port)
	}

	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
