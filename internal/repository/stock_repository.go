package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coal-stock-service/internal/models"

	"github.com/shopspring/decimal"
)

// LedgerStore is the set of operations available both on the plain
// repository and inside a transaction opened by WithTx.
type LedgerStore interface {
	// Stock ledger rows
	FindStock(ctx context.Context, contractorID, jettyID int64) (*models.StockBalance, error)
	GetStockByID(ctx context.Context, id int64) (*models.StockBalance, error)
	CreateStock(ctx context.Context, contractorID, jettyID int64, tonnage decimal.Decimal, at time.Time) (*models.StockBalance, error)
	UpdateStockVersioned(ctx context.Context, id, expectedVersion int64, tonnage decimal.Decimal, at time.Time) (*models.StockBalance, error)

	// Adjustment journal
	CreateAdjustment(ctx context.Context, adj *models.StockAdjustment) error
	GetAdjustmentByID(ctx context.Context, id int64) (*models.StockAdjustment, error)
	ApproveAdjustment(ctx context.Context, id, approverID int64, at time.Time) (*models.StockAdjustment, error)

	// Movement events
	CreateProduction(ctx context.Context, p *models.Production) error
	CreateBarging(ctx context.Context, b *models.Barging) error

	// Master data
	GetContractorByID(ctx context.Context, id int64) (*models.Contractor, error)
	GetJettyByID(ctx context.Context, id int64) (*models.Jetty, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// StockRepository is the full repository: transactional writes plus the
// read-only listings used by reports and the API.
type StockRepository interface {
	LedgerStore

	// WithTx runs fn in a database transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(LedgerStore) error) error

	// Listings
	ListStock(ctx context.Context, filter *models.StockFilter) ([]*models.StockWithDetails, error)
	ListAdjustments(ctx context.Context, filter *models.AdjustmentFilter) ([]*models.AdjustmentWithDetails, error)
	ListProductions(ctx context.Context, filter *models.MovementFilter) ([]*models.Production, error)
	ListBargings(ctx context.Context, filter *models.MovementFilter) ([]*models.Barging, error)

	Close() error
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// stockRepository implements StockRepository. When tx is set every
// statement runs inside that transaction.
type stockRepository struct {
	db    *sql.DB
	tx    *sql.Tx
	stmts map[string]*sql.Stmt
}

const stockColumns = `id, contractor_id, jetty_id, tonnage, last_updated, version, created_at`

// NewStockRepository creates the repository and prepares its statements.
// Queries use numbered placeholders in ascending order so they run on both
// lib/pq and go-sqlite3.
func NewStockRepository(db *sql.DB) (StockRepository, error) {
	repo := &stockRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *stockRepository) prepareStatements() error {
	statements := map[string]string{
		"find_stock": `
			SELECT ` + stockColumns + `
			FROM stock_balances
			WHERE contractor_id = $1 AND jetty_id = $2
		`,
		"get_stock": `
			SELECT ` + stockColumns + `
			FROM stock_balances
			WHERE id = $1
		`,
		"create_stock": `
			INSERT INTO stock_balances
			(contractor_id, jetty_id, tonnage, last_updated, version, created_at)
			VALUES ($1, $2, $3, $4, 1, $5)
			ON CONFLICT (contractor_id, jetty_id) DO NOTHING
			RETURNING ` + stockColumns,
		// The version predicate makes the check-and-set a single statement.
		"update_stock_versioned": `
			UPDATE stock_balances
			SET tonnage = $1, last_updated = $2, version = version + 1
			WHERE id = $3 AND version = $4
			RETURNING ` + stockColumns,
		"create_adjustment": `
			INSERT INTO stock_adjustments
			(stock_id, user_id, previous_tonnage, new_tonnage, adjustment_amount,
			 reason, reason_description, reference_document, attachment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`,
		"get_adjustment": `
			SELECT ` + adjustmentColumns + `
			FROM stock_adjustments
			WHERE id = $1
		`,
		"approve_adjustment": `
			UPDATE stock_adjustments
			SET approved_by = $1, approved_at = $2
			WHERE id = $3 AND approved_by IS NULL
			RETURNING ` + adjustmentColumns,
		"create_production": `
			INSERT INTO productions
			(contractor_id, jetty_id, operator_id, truck_number, coal_grade,
			 tonnage, balance_after, produced_at, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`,
		"create_barging": `
			INSERT INTO bargings
			(contractor_id, jetty_id, operator_id, ship_name, voyage_number,
			 tonnage, balance_after, barged_at, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`,
		"get_contractor": `
			SELECT id, code, name, is_active, created_at
			FROM contractors
			WHERE id = $1
		`,
		"get_jetty": `
			SELECT id, name, is_active, created_at
			FROM jetties
			WHERE id = $1
		`,
		"get_user": `
			SELECT id, username, full_name, role, is_active, created_at
			FROM users
			WHERE id = $1
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

// stmt returns the named statement, bound to the transaction if there is one.
func (r *stockRepository) stmt(ctx context.Context, name string) *sql.Stmt {
	stmt := r.stmts[name]
	if r.tx != nil {
		return r.tx.StmtContext(ctx, stmt)
	}
	return stmt
}

func (r *stockRepository) q() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// WithTx runs fn inside a transaction. Calls made on an already
// transactional repository join the running transaction.
func (r *stockRepository) WithTx(ctx context.Context, fn func(LedgerStore) error) error {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&stockRepository{db: r.db, tx: tx, stmts: r.stmts}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close releases the prepared statements. The *sql.DB belongs to the caller.
func (r *stockRepository) Close() error {
	if r.tx != nil {
		return nil
	}
	var firstErr error
	for name, stmt := range r.stmts {
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", name, err)
		}
	}
	return firstErr
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStock(row rowScanner) (*models.StockBalance, error) {
	var (
		stock       models.StockBalance
		lastUpdated timestamp
		createdAt   timestamp
	)
	err := row.Scan(
		&stock.ID, &stock.ContractorID, &stock.JettyID, &stock.Tonnage,
		&lastUpdated, &stock.Version, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	stock.LastUpdated = lastUpdated.Time
	stock.CreatedAt = createdAt.Time
	return &stock, nil
}

// FindStock returns the ledger row for a (contractor, jetty) pair, or nil
// when the pair has never received stock.
func (r *stockRepository) FindStock(ctx context.Context, contractorID, jettyID int64) (*models.StockBalance, error) {
	stock, err := scanStock(r.stmt(ctx, "find_stock").QueryRowContext(ctx, contractorID, jettyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}

// GetStockByID returns a ledger row by surrogate id, or nil.
func (r *stockRepository) GetStockByID(ctx context.Context, id int64) (*models.StockBalance, error) {
	stock, err := scanStock(r.stmt(ctx, "get_stock").QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock %d: %w", id, err)
	}
	return stock, nil
}

// CreateStock inserts the first ledger row for a pair at version 1. It
// returns ErrDuplicateKey when the pair already has a row; the insert does
// not abort the surrounding transaction in that case.
func (r *stockRepository) CreateStock(ctx context.Context, contractorID, jettyID int64, tonnage decimal.Decimal, at time.Time) (*models.StockBalance, error) {
	stock, err := scanStock(r.stmt(ctx, "create_stock").QueryRowContext(ctx,
		contractorID, jettyID, tonnage, at, at,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateKey
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create stock: %w", err)
	}
	return stock, nil
}

// UpdateStockVersioned sets tonnage and last_updated and bumps the version,
// only if the row is still at expectedVersion. Otherwise it returns
// ErrVersionConflict and writes nothing.
func (r *stockRepository) UpdateStockVersioned(ctx context.Context, id, expectedVersion int64, tonnage decimal.Decimal, at time.Time) (*models.StockBalance, error) {
	stock, err := scanStock(r.stmt(ctx, "update_stock_versioned").QueryRowContext(ctx,
		tonnage, at, id, expectedVersion,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update stock %d: %w", id, err)
	}
	return stock, nil
}

// ListStock returns ledger rows with contractor and jetty names.
func (r *stockRepository) ListStock(ctx context.Context, filter *models.StockFilter) ([]*models.StockWithDetails, error) {
	var where whereBuilder
	if filter != nil {
		if filter.ContractorID != nil {
			where.add("s.contractor_id = $%d", *filter.ContractorID)
		}
		if filter.JettyID != nil {
			where.add("s.jetty_id = $%d", *filter.JettyID)
		}
		if filter.NonZeroOnly {
			// Tonnage is bound in its canonical decimal form, so zero is
			// always stored as '0' on SQLite.
			where.addRaw("s.tonnage <> 0")
		}
	}

	query := `
		SELECT s.id, s.contractor_id, s.jetty_id, s.tonnage, s.last_updated, s.version, s.created_at,
		       c.name, j.name
		FROM stock_balances s
		JOIN contractors c ON c.id = s.contractor_id
		JOIN jetties j ON j.id = s.jetty_id` + where.String() + `
		ORDER BY c.name, j.name`

	rows, err := r.q().QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	defer rows.Close()

	var stocks []*models.StockWithDetails
	for rows.Next() {
		var (
			item        models.StockWithDetails
			lastUpdated timestamp
			createdAt   timestamp
		)
		err := rows.Scan(
			&item.ID, &item.ContractorID, &item.JettyID, &item.Tonnage,
			&lastUpdated, &item.Version, &createdAt,
			&item.ContractorName, &item.JettyName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		item.LastUpdated = lastUpdated.Time
		item.CreatedAt = createdAt.Time
		stocks = append(stocks, &item)
	}

	return stocks, rows.Err()
}
