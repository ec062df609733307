// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the API process needs at startup.
type Config struct {
	Addr       string
	AuthSecret string

	PostgresDSN      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RatePerSecond float64
	RateBurst     int

	MigrationsDir string
	SeedsDir      string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads configuration from ORGACCESS_* environment variables.
func Load() (*Config, error) {
	c := &Config{
		Addr:       getenv("ORGACCESS_ADDR", ":8080"),
		AuthSecret: getenv("ORGACCESS_AUTH_SECRET", ""),

		PostgresDSN:      getenv("ORGACCESS_PG_DSN", ""),
		PostgresHost:     getenv("ORGACCESS_PG_HOST", "localhost"),
		PostgresPort:     getenv("ORGACCESS_PG_PORT", "5432"),
		PostgresUser:     getenv("ORGACCESS_PG_USER", "orgaccess"),
		PostgresPassword: getenv("ORGACCESS_PG_PASSWORD", ""),
		PostgresDB:       getenv("ORGACCESS_PG_DB", "orgaccess"),
		PostgresSSLMode:  getenv("ORGACCESS_PG_SSLMODE", "disable"),

		MigrationsDir: getenv("ORGACCESS_MIGRATIONS_DIR", "ops/migrations/sql"),
		SeedsDir:      getenv("ORGACCESS_SEEDS_DIR", "ops/migrations/seeds"),
	}

	if c.AuthSecret == "" {
		return nil, errors.New("ORGACCESS_AUTH_SECRET must be set")
	}

	var err error
	if c.AccessTokenTTL, err = durationEnv("ORGACCESS_ACCESS_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if c.RefreshTokenTTL, err = durationEnv("ORGACCESS_REFRESH_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if c.RatePerSecond, err = floatEnv("ORGACCESS_RATE_PER_SECOND", 20); err != nil {
		return nil, err
	}
	if c.RateBurst, err = intEnv("ORGACCESS_RATE_BURST", 40); err != nil {
		return nil, err
	}
	if c.RatePerSecond <= 0 || c.RateBurst <= 0 {
		return nil, errors.New("rate limit settings must be positive")
	}
	return c, nil
}

// DSN returns the explicit DSN when set, otherwise one assembled from the
// individual connection settings.
func (c *Config) DSN() string {
	if c.PostgresDSN != "" {
		return c.PostgresDSN
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresDB, c.PostgresSSLMode)
	if c.PostgresPassword != "" {
		dsn += " password=" + c.PostgresPassword
	}
	return dsn
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return f, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}
