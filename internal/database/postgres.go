package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Dialect identifies the SQL engine behind an SQLDB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// SQLDB wraps the connection pool together with its dialect so the
// migrations can pick the right DDL.
type SQLDB struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewPostgresDB(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration, logger *zap.Logger) (*SQLDB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("dialect", string(DialectPostgres)),
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime),
	)

	return &SQLDB{DB: db, Dialect: DialectPostgres}, nil
}

func (p *SQLDB) Close() error {
	return p.DB.Close()
}

func (p *SQLDB) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

// GetStats returns connection pool statistics.
func (p *SQLDB) GetStats() sql.DBStats {
	return p.DB.Stats()
}
