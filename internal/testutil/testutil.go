// Package testutil opens throwaway SQLite databases with the service schema
// and seeds master data for package tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"coal-stock-service/internal/database"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// NewDB returns a migrated SQLite database in the test's temp dir. The
// database is closed on cleanup.
func NewDB(t testing.TB) *database.SQLDB {
	t.Helper()

	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "coal.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

// Seed holds the ids of the master rows created by SeedMaster.
type Seed struct {
	ContractorID         int64
	OtherContractorID    int64
	InactiveContractorID int64
	JettyID              int64
	OtherJettyID         int64
	InactiveJettyID      int64
	OperatorID           int64
	SupervisorID         int64
}

// SeedMaster inserts two active contractors, two active jetties, one inactive
// of each and two users.
func SeedMaster(t testing.TB, db *database.SQLDB) Seed {
	t.Helper()

	var s Seed
	s.ContractorID = insert(t, db, "INSERT INTO contractors (code, name, is_active) VALUES ($1, $2, $3)", "KPC", "Kaltim Prima Coal", true)
	s.OtherContractorID = insert(t, db, "INSERT INTO contractors (code, name, is_active) VALUES ($1, $2, $3)", "BRM", "Borneo Resources", true)
	s.InactiveContractorID = insert(t, db, "INSERT INTO contractors (code, name, is_active) VALUES ($1, $2, $3)", "OLD", "Retired Contractor", false)
	s.JettyID = insert(t, db, "INSERT INTO jetties (name, is_active) VALUES ($1, $2)", "Jetty A", true)
	s.OtherJettyID = insert(t, db, "INSERT INTO jetties (name, is_active) VALUES ($1, $2)", "Jetty B", true)
	s.InactiveJettyID = insert(t, db, "INSERT INTO jetties (name, is_active) VALUES ($1, $2)", "Jetty Closed", false)
	s.OperatorID = insert(t, db, "INSERT INTO users (username, full_name, role) VALUES ($1, $2, $3)", "operator", "Budi Operator", "operator")
	s.SupervisorID = insert(t, db, "INSERT INTO users (username, full_name, role) VALUES ($1, $2, $3)", "supervisor", "", "supervisor")
	return s
}

func insert(t testing.TB, db *database.SQLDB, query string, args ...interface{}) int64 {
	t.Helper()

	res, err := db.DB.ExecContext(context.Background(), query, args...)
	require.NoError(t, err, fmt.Sprintf("seed: %s", query))
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
