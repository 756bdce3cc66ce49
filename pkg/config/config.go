package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port string
	Env  string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL      string
	RedisPassword string

	// JWT configuration
	JWTSecret string

	// Blockchain explorer APIs (etherscan family)
	EtherscanAPIKey   string
	PolygonscanAPIKey string

	// Banking - Plaid
	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string // sandbox, development, production

	// Brokerage provider
	BrokerClientID    string
	BrokerConsumerKey string

	// Classification ruleset; empty uses the built-in defaults
	RulesetPath string

	// SpendingWindowDays is how far back bank transactions are fetched
	SpendingWindowDays int

	// SnapshotCacheTTLSeconds is how long a built snapshot stays cached
	SnapshotCacheTTLSeconds int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		EtherscanAPIKey:         getEnv("ETHERSCAN_API_KEY", ""),
		PolygonscanAPIKey:       getEnv("POLYGONSCAN_API_KEY", ""),
		PlaidClientID:           getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:             getEnv("PLAID_SECRET", ""),
		PlaidEnv:                getEnv("PLAID_ENV", "sandbox"),
		BrokerClientID:          getEnv("BROKER_CLIENT_ID", ""),
		BrokerConsumerKey:       getEnv("BROKER_CONSUMER_KEY", ""),
		RulesetPath:             getEnv("RULESET_PATH", ""),
		SpendingWindowDays:      getEnvAsInt("SPENDING_WINDOW_DAYS", 30),
		SnapshotCacheTTLSeconds: getEnvAsInt("SNAPSHOT_CACHE_TTL_SECONDS", 300),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	switch c.PlaidEnv {
	case "sandbox", "development", "production":
	default:
		return fmt.Errorf("PLAID_ENV must be sandbox, development or production")
	}

	if c.SpendingWindowDays <= 0 {
		return fmt.Errorf("SPENDING_WINDOW_DAYS must be positive")
	}

	if c.IsProduction() {
		if c.PlaidClientID == "" || c.PlaidSecret == "" {
			return fmt.Errorf("PLAID_CLIENT_ID and PLAID_SECRET are required in production")
		}
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
