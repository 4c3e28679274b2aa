package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "billing_db", cfg.Database.Name)
	assert.Equal(t, "BDT", cfg.Billing.DefaultCurrency)
	assert.Equal(t, "en", cfg.Billing.DefaultLocale)
	assert.Equal(t, 30, cfg.Billing.PaymentTermsDays)
	assert.Equal(t, time.Duration(0), cfg.Reconcile.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.False(t, cfg.Storage.Enabled)
}

func TestLoadFileReadsYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
server:
  port: 9090
database:
  host: db.internal
  name: vendor_books
billing:
  default_currency: USD
  payment_terms_days: 14
reconcile:
  interval: 15m
jwt:
  secret: from-file
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_HOST", "db.override")
	t.Setenv("DB_PORT", "6543")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "vendor_books", cfg.Database.Name)
	assert.Equal(t, "USD", cfg.Billing.DefaultCurrency)
	assert.Equal(t, 14, cfg.Billing.PaymentTermsDays)
	assert.Equal(t, 15*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Contains(t, cfg.DSN(), "@db.override:6543/vendor_books?sslmode=disable")
}

func TestLoadFileRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogConfigFallsBackToDefaults(t *testing.T) {
	var cfg Config
	lc := cfg.LogConfig()
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "console", lc.Format)

	cfg.Log.Format = "json"
	assert.Equal(t, "json", cfg.LogConfig().Format)
}
