package database

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it does not exist yet. Every statement is
// idempotent so it is safe to run on each start.
func (p *SQLDB) Migrate(ctx context.Context) error {
	var statements []string
	switch p.Dialect {
	case DialectPostgres:
		statements = postgresSchema
	case DialectSQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("no schema for dialect %q", p.Dialect)
	}

	for i, stmt := range statements {
		if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		username   VARCHAR(100) NOT NULL UNIQUE,
		full_name  VARCHAR(150) NOT NULL DEFAULT '',
		role       VARCHAR(30)  NOT NULL DEFAULT 'operator',
		is_active  BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contractors (
		id         BIGSERIAL PRIMARY KEY,
		code       VARCHAR(30)  NOT NULL UNIQUE,
		name       VARCHAR(150) NOT NULL,
		is_active  BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS jetties (
		id         BIGSERIAL PRIMARY KEY,
		name       VARCHAR(100) NOT NULL UNIQUE,
		is_active  BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS stock_balances (
		id            BIGSERIAL PRIMARY KEY,
		contractor_id BIGINT        NOT NULL REFERENCES contractors(id),
		jetty_id      BIGINT        NOT NULL REFERENCES jetties(id),
		tonnage       NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (tonnage >= 0),
		last_updated  TIMESTAMPTZ   NOT NULL,
		version       INTEGER       NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ   NOT NULL,
		CONSTRAINT uq_stock_balances_contractor_jetty UNIQUE (contractor_id, jetty_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_adjustments (
		id                 BIGSERIAL PRIMARY KEY,
		stock_id           BIGINT        NOT NULL REFERENCES stock_balances(id),
		user_id            BIGINT        NOT NULL REFERENCES users(id),
		previous_tonnage   NUMERIC(14,2) NOT NULL,
		new_tonnage        NUMERIC(14,2) NOT NULL CHECK (new_tonnage >= 0),
		adjustment_amount  NUMERIC(14,2) NOT NULL,
		reason             VARCHAR(30)   NOT NULL CHECK (reason IN ('manual_correction','waste','spillage','measurement_error','other')),
		reason_description TEXT          NOT NULL,
		reference_document VARCHAR(255),
		attachment         VARCHAR(500),
		approved_by        BIGINT REFERENCES users(id),
		approved_at        TIMESTAMPTZ,
		created_at         TIMESTAMPTZ   NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_adjustments_stock ON stock_adjustments(stock_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_adjustments_pending ON stock_adjustments(created_at) WHERE approved_by IS NULL`,
	`CREATE TABLE IF NOT EXISTS productions (
		id            BIGSERIAL PRIMARY KEY,
		contractor_id BIGINT        NOT NULL REFERENCES contractors(id),
		jetty_id      BIGINT        NOT NULL REFERENCES jetties(id),
		operator_id   BIGINT        NOT NULL REFERENCES users(id),
		truck_number  VARCHAR(50)   NOT NULL,
		coal_grade    VARCHAR(30)   NOT NULL DEFAULT '',
		tonnage       NUMERIC(14,2) NOT NULL CHECK (tonnage > 0),
		balance_after NUMERIC(14,2) NOT NULL,
		produced_at   TIMESTAMPTZ   NOT NULL,
		notes         TEXT          NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ   NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_productions_pair_date ON productions(contractor_id, jetty_id, produced_at DESC)`,
	`CREATE TABLE IF NOT EXISTS bargings (
		id            BIGSERIAL PRIMARY KEY,
		contractor_id BIGINT        NOT NULL REFERENCES contractors(id),
		jetty_id      BIGINT        NOT NULL REFERENCES jetties(id),
		operator_id   BIGINT        NOT NULL REFERENCES users(id),
		ship_name     VARCHAR(100)  NOT NULL,
		voyage_number VARCHAR(50)   NOT NULL DEFAULT '',
		tonnage       NUMERIC(14,2) NOT NULL CHECK (tonnage > 0),
		balance_after NUMERIC(14,2) NOT NULL,
		barged_at     TIMESTAMPTZ   NOT NULL,
		notes         TEXT          NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ   NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bargings_pair_date ON bargings(contractor_id, jetty_id, barged_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT,
		action      VARCHAR(50) NOT NULL,
		entity_type VARCHAR(50) NOT NULL,
		entity_id   BIGINT,
		details     TEXT        NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id)`,
}

// SQLite keeps decimals as TEXT so tonnage survives round trips exactly.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		username   TEXT    NOT NULL UNIQUE,
		full_name  TEXT    NOT NULL DEFAULT '',
		role       TEXT    NOT NULL DEFAULT 'operator',
		is_active  BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS contractors (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		code       TEXT    NOT NULL UNIQUE,
		name       TEXT    NOT NULL,
		is_active  BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS jetties (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT    NOT NULL UNIQUE,
		is_active  BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS stock_balances (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		contractor_id INTEGER   NOT NULL REFERENCES contractors(id),
		jetty_id      INTEGER   NOT NULL REFERENCES jetties(id),
		tonnage       TEXT      NOT NULL DEFAULT '0' CHECK (CAST(tonnage AS REAL) >= 0),
		last_updated  TIMESTAMP NOT NULL,
		version       INTEGER   NOT NULL DEFAULT 1,
		created_at    TIMESTAMP NOT NULL,
		UNIQUE (contractor_id, jetty_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_adjustments (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		stock_id           INTEGER   NOT NULL REFERENCES stock_balances(id),
		user_id            INTEGER   NOT NULL REFERENCES users(id),
		previous_tonnage   TEXT      NOT NULL,
		new_tonnage        TEXT      NOT NULL CHECK (CAST(new_tonnage AS REAL) >= 0),
		adjustment_amount  TEXT      NOT NULL,
		reason             TEXT      NOT NULL CHECK (reason IN ('manual_correction','waste','spillage','measurement_error','other')),
		reason_description TEXT      NOT NULL,
		reference_document TEXT,
		attachment         TEXT,
		approved_by        INTEGER REFERENCES users(id),
		approved_at        TIMESTAMP,
		created_at         TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_adjustments_stock ON stock_adjustments(stock_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS productions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		contractor_id INTEGER   NOT NULL REFERENCES contractors(id),
		jetty_id      INTEGER   NOT NULL REFERENCES jetties(id),
		operator_id   INTEGER   NOT NULL REFERENCES users(id),
		truck_number  TEXT      NOT NULL,
		coal_grade    TEXT      NOT NULL DEFAULT '',
		tonnage       TEXT      NOT NULL,
		balance_after TEXT      NOT NULL,
		produced_at   TIMESTAMP NOT NULL,
		notes         TEXT      NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_productions_pair_date ON productions(contractor_id, jetty_id, produced_at)`,
	`CREATE TABLE IF NOT EXISTS bargings (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		contractor_id INTEGER   NOT NULL REFERENCES contractors(id),
		jetty_id      INTEGER   NOT NULL REFERENCES jetties(id),
		operator_id   INTEGER   NOT NULL REFERENCES users(id),
		ship_name     TEXT      NOT NULL,
		voyage_number TEXT      NOT NULL DEFAULT '',
		tonnage       TEXT      NOT NULL,
		balance_after TEXT      NOT NULL,
		barged_at     TIMESTAMP NOT NULL,
		notes         TEXT      NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bargings_pair_date ON bargings(contractor_id, jetty_id, barged_at)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER,
		action      TEXT      NOT NULL,
		entity_type TEXT      NOT NULL,
		entity_id   INTEGER,
		details     TEXT      NOT NULL DEFAULT '{}',
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id)`,
}
