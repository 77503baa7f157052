package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the trader
// ⭐ SSOT: environment variables are read only here
type Config struct {
	Env string // development, staging, production

	// Audit database (optional)
	Database DatabaseConfig

	// Redis (optional detail-document cache and shared rate limit)
	Redis RedisConfig

	// Note trading service
	LendingClub LendingClubConfig

	// Strategy YAML and market model coefficients
	StrategyFile string
	ModelFile    string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether run auditing has a database to write to
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// LendingClubConfig holds the account and transport settings of the note service
type LendingClubConfig struct {
	BaseURL      string
	Email        string
	Password     string
	CacheDir     string
	RequestDelay time.Duration // pacing between detail fetches
	Timeout      time.Duration
}

// HasCredentials reports whether a login can be attempted
func (c LendingClubConfig) HasCredentials() bool {
	return c.Email != "" && c.Password != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		LendingClub: LendingClubConfig{
			BaseURL:      getEnv("LC_BASE_URL", "https://www.lendingclub.com"),
			Email:        getEnv("LC_LOGIN_EMAIL", ""),
			Password:     getEnv("LC_LOGIN_PASSWORD", ""),
			CacheDir:     getEnv("LC_CACHE_DIR", "cache"),
			RequestDelay: getEnvAsDuration("LC_REQUEST_DELAY", "1s"),
			Timeout:      getEnvAsDuration("LC_TIMEOUT", "30s"),
		},

		StrategyFile: getEnv("STRATEGY_FILE", ""),
		ModelFile:    getEnv("MARKET_MODEL_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.LendingClub.RequestDelay < 0 {
		return fmt.Errorf("LC_REQUEST_DELAY must not be negative")
	}

	if c.LendingClub.BaseURL == "" {
		return fmt.Errorf("LC_BASE_URL is required")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
