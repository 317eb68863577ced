// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr      string
	GRPCAddr      string
	DatabaseURL   string
	AuthSecret    string
	AdminUser     string
	AdminPassHash string
	EnforceLimits bool
	RateBurst     int
	RatePerSec    int
	LogLevel      string
	ShutdownGrace time.Duration
}

// Load reads BANK_* variables, falling back to defaults for unset ones.
// Malformed values are reported together.
func Load() (*Config, error) {
	var errs []error
	cfg := &Config{
		HTTPAddr:      getEnv("BANK_HTTP_ADDR", ":8080"),
		GRPCAddr:      getEnv("BANK_GRPC_ADDR", ":9090"),
		DatabaseURL:   getEnv("BANK_PG_DSN", ""),
		AuthSecret:    getEnv("BANK_AUTH_SECRET", ""),
		AdminUser:     getEnv("BANK_ADMIN_USER", "admin"),
		AdminPassHash: getEnv("BANK_ADMIN_PASSWORD_HASH", ""),
		LogLevel:      getEnv("BANK_LOG_LEVEL", "info"),
	}
	cfg.EnforceLimits = getBool("BANK_ENFORCE_LIMITS", false, &errs)
	cfg.RateBurst = getInt("BANK_RATE_BURST", 20, &errs)
	cfg.RatePerSec = getInt("BANK_RATE_PER_SEC", 10, &errs)
	cfg.ShutdownGrace = getDuration("BANK_SHUTDOWN_GRACE", 10*time.Second, &errs)
	if cfg.AuthSecret != "" && cfg.AdminPassHash == "" {
		errs = append(errs, errors.New("BANK_ADMIN_PASSWORD_HASH: required when BANK_AUTH_SECRET is set"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuthEnabled reports whether bearer tokens are required on guarded routes.
func (c *Config) AuthEnabled() bool { return c.AuthSecret != "" }

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func getInt(key string, fallback int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: want a positive integer, got %q", key, v))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
