// Package config provides configuration management for the chathub server.
// It loads values from environment variables with support for required
// variables, defaults, and collective error reporting, so a misconfigured
// deployment fails fast with every problem listed at once.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/chathub-go/apperror"
)

// PoolConfig holds settings for the PostgreSQL connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret            string        // Secret key for signing JWTs
	AccessTokenDuration  time.Duration // Duration for access tokens
	RefreshTokenDuration time.Duration // Duration for refresh tokens
}

// PresenceConfig holds presence-derivation policy for the transport layer.
// The core presence API always takes the window as an explicit parameter;
// this value is only the default the HTTP handlers pass in.
type PresenceConfig struct {
	OnlineWindow time.Duration
}

// FeedConfig holds read-side limits for the public feed and private history.
type FeedConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	StatsInterval  time.Duration // cadence of the background stats sampler; 0 disables it
	MigrationsPath string
}

// AppConfig is the top-level configuration structure.
type AppConfig struct {
	DB       *PoolConfig
	Auth     *AuthConfig
	Presence *PresenceConfig
	Feed     *FeedConfig
	Server   *ServerConfig
}

func getRequiredEnv(key string, errs *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errs = append(*errs, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getOptionalEnvInt(key string, defaultValue int, errs *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

func getOptionalEnvDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// LoadConfig reads the full application configuration from the environment.
// All problems are collected and reported together in a single ConfigError.
func LoadConfig() (*AppConfig, error) {
	var errs []string

	dbCfg := &PoolConfig{
		Host:     getOptionalEnv("DB_HOST", "localhost"),
		Port:     getOptionalEnvInt("DB_PORT", 5432, &errs),
		User:     getRequiredEnv("DB_USER", &errs),
		Password: getRequiredEnv("DB_PASSWORD", &errs),
		DBName:   getRequiredEnv("DB_NAME", &errs),
		MaxSize:  getOptionalEnvInt("DB_POOL_SIZE", 10, &errs),
	}
	if dbCfg.MaxSize < 1 || dbCfg.MaxSize > 100 {
		errs = append(errs, fmt.Sprintf("DB_POOL_SIZE out of range [1,100]: %d", dbCfg.MaxSize))
	}

	authCfg := &AuthConfig{
		JWTSecret:            getRequiredEnv("JWT_SECRET", &errs),
		AccessTokenDuration:  getOptionalEnvDuration("ACCESS_TOKEN_DURATION", 15*time.Minute, &errs),
		RefreshTokenDuration: getOptionalEnvDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour, &errs),
	}

	presenceCfg := &PresenceConfig{
		OnlineWindow: getOptionalEnvDuration("PRESENCE_ONLINE_WINDOW", 5*time.Minute, &errs),
	}
	if presenceCfg.OnlineWindow <= 0 {
		errs = append(errs, fmt.Sprintf("PRESENCE_ONLINE_WINDOW must be positive: %s", presenceCfg.OnlineWindow))
	}

	feedCfg := &FeedConfig{
		DefaultLimit: getOptionalEnvInt("FEED_DEFAULT_LIMIT", 100, &errs),
		MaxLimit:     getOptionalEnvInt("FEED_MAX_LIMIT", 500, &errs),
	}
	if feedCfg.DefaultLimit < 1 || feedCfg.MaxLimit < feedCfg.DefaultLimit {
		errs = append(errs, fmt.Sprintf("feed limits out of order: default=%d max=%d", feedCfg.DefaultLimit, feedCfg.MaxLimit))
	}

	serverCfg := &ServerConfig{
		Port:           getOptionalEnv("SERVER_PORT", "8080"),
		StatsInterval:  getOptionalEnvDuration("STATS_INTERVAL", 5*time.Second, &errs),
		MigrationsPath: getOptionalEnv("MIGRATIONS_PATH", "./migrations"),
	}

	if len(errs) > 0 {
		return nil, apperror.NewConfigError("configuration errors: "+strings.Join(errs, "; "), nil)
	}

	return &AppConfig{
		DB:       dbCfg,
		Auth:     authCfg,
		Presence: presenceCfg,
		Feed:     feedCfg,
		Server:   serverCfg,
	}, nil
}
