package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// NewSQLiteDB opens a SQLite database for local runs and tests.
//
// SQLite allows a single writer, so the pool is pinned to one connection:
// transactions queue up instead of failing with SQLITE_BUSY. Row versioning
// still guards every stock update exactly as it does on Postgres.
func NewSQLiteDB(path string, logger *zap.Logger) (*SQLDB, error) {
	dsn := path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("dialect", string(DialectSQLite)),
		zap.String("path", path),
	)

	return &SQLDB{DB: db, Dialect: DialectSQLite}, nil
}
