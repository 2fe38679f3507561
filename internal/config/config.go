// Package config provides application configuration management using environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Upstream  UpstreamConfig
	RateLimit RateLimitConfig
	Points    PointsConfig
	Cache     CacheConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPPort string
	Host     string
	Env      string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// UpstreamConfig holds football data API configuration
type UpstreamConfig struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RateLimitConfig holds the outbound quota ceilings
type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerDay    int
}

// PointsConfig holds the points ledger configuration
type PointsConfig struct {
	DailyFreeAllotment int
	ReferrerBonus      int
	ReferredBonus      int
}

// CacheConfig holds cache backend selection and the category TTL table
type CacheConfig struct {
	Backend       string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTLLive       time.Duration
	TTLUpcoming   time.Duration
	TTLLeague     time.Duration
	TTLTeam       time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
// It optionally loads from a .env file if it exists
func Load() (*Config, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Server = ServerConfig{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Host:     getEnv("SERVER_HOST", "localhost"),
		Env:      getEnv("ENVIRONMENT", "development"),
	}

	maxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))

	cfg.Database = DatabaseConfig{
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         getEnv("DB_PORT", "5432"),
		User:         getEnv("DB_USER", "footygateway"),
		Password:     getEnv("DB_PASSWORD", ""),
		Name:         getEnv("DB_NAME", "footygateway_db"),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns: maxOpenConns,
		MaxIdleConns: maxIdleConns,
	}

	maxAttempts, _ := strconv.Atoi(getEnv("UPSTREAM_MAX_ATTEMPTS", "3"))

	cfg.Upstream = UpstreamConfig{
		APIKey:      getEnv("FOOTBALL_API_KEY", ""),
		BaseURL:     getEnv("FOOTBALL_API_BASE_URL", "https://v3.football.api-sports.io"),
		Timeout:     getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		MaxAttempts: maxAttempts,
		BaseDelay:   getEnvDuration("UPSTREAM_BASE_DELAY", 2*time.Second),
		MaxDelay:    getEnvDuration("UPSTREAM_MAX_DELAY", 30*time.Second),
	}

	perMinute, _ := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "30"))
	perDay, _ := strconv.Atoi(getEnv("RATE_LIMIT_PER_DAY", "100"))

	cfg.RateLimit = RateLimitConfig{
		RequestsPerMinute: perMinute,
		RequestsPerDay:    perDay,
	}

	dailyFree, _ := strconv.Atoi(getEnv("DAILY_FREE_POINTS", "5"))
	referrerBonus, _ := strconv.Atoi(getEnv("REFERRER_BONUS", "3"))
	referredBonus, _ := strconv.Atoi(getEnv("REFERRED_BONUS", "1"))

	cfg.Points = PointsConfig{
		DailyFreeAllotment: dailyFree,
		ReferrerBonus:      referrerBonus,
		ReferredBonus:      referredBonus,
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg.Cache = CacheConfig{
		Backend:       getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		TTLLive:       getEnvDuration("CACHE_TTL_LIVE", 30*time.Second),
		TTLUpcoming:   getEnvDuration("CACHE_TTL_UPCOMING", time.Hour),
		TTLLeague:     getEnvDuration("CACHE_TTL_LEAGUE", 6*time.Hour),
		TTLTeam:       getEnvDuration("CACHE_TTL_TEAM", 24*time.Hour),
	}

	cfg.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("FOOTBALL_API_KEY is required")
	}
	if c.Upstream.MaxAttempts < 1 {
		return fmt.Errorf("UPSTREAM_MAX_ATTEMPTS must be at least 1")
	}
	if c.Upstream.BaseDelay <= 0 {
		return fmt.Errorf("UPSTREAM_BASE_DELAY must be positive")
	}
	if c.Upstream.MaxDelay < c.Upstream.BaseDelay {
		return fmt.Errorf("UPSTREAM_MAX_DELAY must not be smaller than UPSTREAM_BASE_DELAY")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RateLimit.RequestsPerDay <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_DAY must be positive")
	}

	if c.Points.DailyFreeAllotment <= 0 {
		return fmt.Errorf("DAILY_FREE_POINTS must be positive")
	}
	if c.Points.ReferrerBonus < 0 || c.Points.ReferredBonus < 0 {
		return fmt.Errorf("referral bonuses must not be negative")
	}

	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration retrieves a duration environment variable, falling back to
// the default when unset or unparseable.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
