package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	defaultPremiumProductID     = "amzn1.adg.product.d1d9f54a-1c1b-449d-a0b6-f89f4617aa6f"
	defaultPremiumReferenceName = "all_access"
)

// Config contains all runtime settings for the coin collector skill service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	LogLevel                 zapcore.Level

	AllowAnyOrigin bool

	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	EntitlementMode         string
	EntitlementAPIEndpoint  string
	EntitlementProductsFile string
	EntitlementTimeout      time.Duration
	PremiumProductID        string
	PremiumReferenceName    string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "coincollector"),
		LogLevel:                 zapcore.InfoLevel,
		AllowAnyOrigin:           false,
		StoreDriver:              strings.ToLower(envOrDefault("STORE_DRIVER", "auto")),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		SQLitePath:               stringsTrimSpace("SQLITE_PATH"),
		EntitlementMode:          strings.ToLower(envOrDefault("ENTITLEMENT_MODE", "auto")),
		EntitlementAPIEndpoint:   stringsTrimSpace("ENTITLEMENT_API_ENDPOINT"),
		EntitlementProductsFile:  stringsTrimSpace("ENTITLEMENT_PRODUCTS_FILE"),
		PremiumProductID:         envOrDefault("PREMIUM_PRODUCT_ID", defaultPremiumProductID),
		PremiumReferenceName:     envOrDefault("PREMIUM_REFERENCE_NAME", defaultPremiumReferenceName),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
		EntitlementTimeout:       3 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.EntitlementTimeout, err = durationFromEnv("ENTITLEMENT_TIMEOUT", cfg.EntitlementTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	if v := stringsTrimSpace("APP_LOG_LEVEL"); v != "" {
		cfg.LogLevel, err = zapcore.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("APP_LOG_LEVEL parse error: %w", err)
		}
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.EntitlementTimeout <= 0 {
		return Config{}, fmt.Errorf("ENTITLEMENT_TIMEOUT must be positive")
	}
	switch cfg.StoreDriver {
	case "auto", "memory", "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be one of auto, memory, postgres, sqlite")
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
	}
	if cfg.StoreDriver == "sqlite" && cfg.SQLitePath == "" {
		return Config{}, fmt.Errorf("STORE_DRIVER=sqlite requires SQLITE_PATH")
	}
	switch cfg.EntitlementMode {
	case "auto", "http", "mock":
	default:
		return Config{}, fmt.Errorf("ENTITLEMENT_MODE must be one of auto, http, mock")
	}
	if strings.TrimSpace(cfg.PremiumReferenceName) == "" {
		return Config{}, fmt.Errorf("PREMIUM_REFERENCE_NAME must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
