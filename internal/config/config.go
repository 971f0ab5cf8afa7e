package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shiwake/reconciler/internal/logger"
)

type Config struct {
	// HTTP server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Storage
	DBPath   string
	SeedPath string

	// Import and matching
	DefaultCompanyID      string
	MaxImportTransactions int
	MatchPolicyPath       string

	// Invoice cache
	InvoiceCacheTTL  time.Duration
	InvoiceCacheSize int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment. A .env file, when
// present, is loaded by main before this is called.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "reconciler.db"),
		SeedPath:         getEnv("SEED_PATH", ""),
		DefaultCompanyID: getEnv("DEFAULT_COMPANY_ID", "default"),
		MatchPolicyPath:  getEnv("MATCH_POLICY_PATH", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:    getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:        getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if cfg.MaxImportTransactions, err = getEnvInt("MAX_IMPORT_TRANSACTIONS", 5000); err != nil {
		return nil, err
	}
	if cfg.InvoiceCacheSize, err = getEnvInt("INVOICE_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.InvoiceCacheTTL, err = getEnvDuration("INVOICE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.DefaultCompanyID == "" {
		return fmt.Errorf("DEFAULT_COMPANY_ID is required")
	}
	if c.MaxImportTransactions <= 0 {
		return fmt.Errorf("MAX_IMPORT_TRANSACTIONS must be positive, got %d", c.MaxImportTransactions)
	}
	if c.InvoiceCacheSize <= 0 {
		return fmt.Errorf("INVOICE_CACHE_SIZE must be positive, got %d", c.InvoiceCacheSize)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
