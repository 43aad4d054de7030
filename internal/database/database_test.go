package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSQLiteMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "coal.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "second run must be a no-op")

	for _, table := range []string{"users", "contractors", "jetties", "stock_balances", "stock_adjustments", "productions", "bargings", "audit_logs"} {
		var name string
		err := db.DB.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestSQLiteSchema_OneStockRowPerPair(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "coal.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	_, err = db.DB.ExecContext(ctx, "INSERT INTO contractors (code, name) VALUES ('C1', 'Contractor 1')")
	require.NoError(t, err)
	_, err = db.DB.ExecContext(ctx, "INSERT INTO jetties (name) VALUES ('J1')")
	require.NoError(t, err)

	insert := `INSERT INTO stock_balances (contractor_id, jetty_id, tonnage, last_updated, created_at)
		VALUES (1, 1, '10', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err = db.DB.ExecContext(ctx, insert)
	require.NoError(t, err)
	_, err = db.DB.ExecContext(ctx, insert)
	assert.Error(t, err, "unique (contractor_id, jetty_id) must reject a second row")
}

func TestSQLiteSchema_RejectsNegativeTonnage(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "coal.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	_, err = db.DB.ExecContext(ctx, "INSERT INTO contractors (code, name) VALUES ('C1', 'Contractor 1')")
	require.NoError(t, err)
	_, err = db.DB.ExecContext(ctx, "INSERT INTO jetties (name) VALUES ('J1')")
	require.NoError(t, err)

	_, err = db.DB.ExecContext(ctx, `INSERT INTO stock_balances (contractor_id, jetty_id, tonnage, last_updated, created_at)
		VALUES (1, 1, '-0.01', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}
