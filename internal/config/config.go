package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultRouterSecret is the secret the router scripts ship with. It is only
// acceptable outside production.
const DefaultRouterSecret = "mikrotik-secret-key-2024"

// Config holds all configuration for the application.
type Config struct {
	Port         string
	Env          string
	RouterSecret string
	RedisURL     string

	// Queue and intake
	HistoryLimit   int           // retained history entries, negative keeps all
	BeaconCooldown time.Duration // minimum spacing of beacon intents per user

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     // Enable auto-blocking after repeated violations
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:             get("PORT", "3000"),
		Env:              get("ENV", "development"),
		RouterSecret:     get("ROUTER_SECRET", DefaultRouterSecret),
		RedisURL:         getenv("REDIS_URL"),
		AutoBlockEnabled: get("AUTO_BLOCK_ENABLED", "false") == "true",
	}

	limit, err := strconv.Atoi(get("HISTORY_LIMIT", "1000"))
	if err != nil {
		return nil, fmt.Errorf("HISTORY_LIMIT: %w", err)
	}
	cfg.HistoryLimit = limit

	cooldown, err := time.ParseDuration(get("BEACON_COOLDOWN", "10s"))
	if err != nil {
		return nil, fmt.Errorf("BEACON_COOLDOWN: %w", err)
	}
	if cooldown <= 0 {
		return nil, fmt.Errorf("BEACON_COOLDOWN must be positive, got %s", cooldown)
	}
	cfg.BeaconCooldown = cooldown

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	// In production, require a real router secret
	if cfg.Env == "production" && cfg.RouterSecret == DefaultRouterSecret {
		return nil, fmt.Errorf("ROUTER_SECRET is required in production")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsesDefaultSecret reports whether the shipped default secret is in use.
func (c *Config) UsesDefaultSecret() bool {
	return c.RouterSecret == DefaultRouterSecret
}
