package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "")
	t.Setenv("LEDGER_RETRY_BACKOFF_MS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 25*time.Millisecond, cfg.Ledger.RetryBackoff)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLITE3")
	t.Setenv("DATABASE_URL", "/tmp/coal.db")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "5")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("STOCK_CACHE_TTL_SECONDS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/coal.db", cfg.Database.URL)
	assert.Equal(t, 5, cfg.Ledger.MaxAttempts)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Redis.StockTTL)
}

func TestLoad_InvalidIntegerFallsBack(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestValidate(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "0")
	t.Setenv("AUDIT_SINK", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_MAX_ATTEMPTS")
}

func TestLoad_AuditAndCache(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "")
	t.Setenv("AUDIT_SINK", "LOG")
	t.Setenv("STOCK_CACHE_L1_SIZE", "64")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AuditSinkLog, cfg.Audit.Sink)
	assert.Equal(t, 256, cfg.Audit.BufferSize)
	assert.Equal(t, 64, cfg.Redis.L1Size)
	assert.Equal(t, 5*time.Second, cfg.Redis.L1TTL)

	t.Setenv("AUDIT_SINK", "kafka")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUDIT_SINK")
}
