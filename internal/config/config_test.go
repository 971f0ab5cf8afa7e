package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "DEFAULT_COMPANY_ID", "MAX_IMPORT_TRANSACTIONS", "INVOICE_CACHE_TTL", "INVOICE_CACHE_SIZE", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "reconciler.db", cfg.DBPath)
	assert.Equal(t, "default", cfg.DefaultCompanyID)
	assert.Equal(t, 5000, cfg.MaxImportTransactions)
	assert.Equal(t, 5*time.Minute, cfg.InvoiceCacheTTL)
	assert.Equal(t, 256, cfg.InvoiceCacheSize)
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_IMPORT_TRANSACTIONS", "10")
	t.Setenv("INVOICE_CACHE_TTL", "30s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10, cfg.MaxImportTransactions)
	assert.Equal(t, 30*time.Second, cfg.InvoiceCacheTTL)
	assert.Equal(t, "json", cfg.GetLoggerConfig().Format)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MAX_IMPORT_TRANSACTIONS", "many")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_IMPORT_TRANSACTIONS")

	t.Setenv("MAX_IMPORT_TRANSACTIONS", "0")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}
