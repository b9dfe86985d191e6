// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/unisupport/unisupport/internal/llm"
)

// Config holds the settings shared by the CLI, HTTP server and bot.
type Config struct {
	// DBPath is the SQLite database file. Empty means store.DefaultDBPath.
	DBPath string

	Addr        string
	GinMode     string
	JWTSecret   string
	CORSOrigins []string

	Redis RedisConfig

	TelegramToken string

	LLM llm.Config
}

// RedisConfig selects the Redis recommendation cache. An empty Addr keeps
// the cache in SQLite.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// DefaultConfig returns the defaults used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		GinMode:     "release",
		CORSOrigins: []string{"http://localhost:5173"},
		LLM:         llm.DefaultConfig(),
	}
}

// Load reads a .env file from the working directory, if present, and then
// builds the config from the environment. Variables already set in the
// environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables, falling back to
// defaults for unset values.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.DBPath = os.Getenv("UNISUPPORT_DB")
	if v := os.Getenv("UNISUPPORT_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.GinMode = v
	}
	cfg.JWTSecret = os.Getenv("UNISUPPORT_JWT_SECRET")
	if v := os.Getenv("UNISUPPORT_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	cfg.Redis.Addr = os.Getenv("UNISUPPORT_REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("UNISUPPORT_REDIS_PASSWORD")
	if v := os.Getenv("UNISUPPORT_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("UNISUPPORT_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}

	cfg.TelegramToken = os.Getenv("UNISUPPORT_TELEGRAM_TOKEN")

	cfg.LLM = llm.ConfigFromEnv()
	if os.Getenv("UNISUPPORT_LLM_PROVIDER") == "" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg.LLM = discovered
		}
	}

	return cfg, nil
}

// ValidateServer checks the settings the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.Addr == "" {
		return errors.New("UNISUPPORT_ADDR must not be empty")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("UNISUPPORT_JWT_SECRET must be at least 16 characters")
	}
	return nil
}

// ValidateBot checks the settings the Telegram bot needs.
func (c Config) ValidateBot() error {
	if c.TelegramToken == "" {
		return errors.New("UNISUPPORT_TELEGRAM_TOKEN is required for the bot")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
