package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"coal-stock-service/internal/models"
	"coal-stock-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerOptions tunes the update protocol.
type LedgerOptions struct {
	// MaxAttempts bounds the read-check-write cycles per call. Values below
	// 1 are treated as 1.
	MaxAttempts int
	// RetryBackoff is the base wait after a lost version check; attempt n
	// waits n*RetryBackoff.
	RetryBackoff time.Duration
	// Clock stamps last_updated. Defaults to time.Now.
	Clock func() time.Time
}

// StockLedger applies signed tonnage deltas to stock rows with optimistic
// concurrency control. It holds no locks and no per-row state; the version
// column of each row decides which concurrent writer wins.
type StockLedger struct {
	maxAttempts int
	backoff     time.Duration
	clock       func() time.Time
	logger      *zap.Logger

	operations  atomic.Int64
	attempts    atomic.Int64
	conflicts   atomic.Int64
	createRaces atomic.Int64
	exhausted   atomic.Int64
}

// NewStockLedger creates the ledger.
func NewStockLedger(opts LedgerOptions, logger *zap.Logger) *StockLedger {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &StockLedger{
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.RetryBackoff,
		clock:       opts.Clock,
		logger:      logger.Named("ledger"),
	}
}

// Now returns the ledger clock in UTC.
func (l *StockLedger) Now() time.Time {
	return l.clock().UTC()
}

// ApplyDelta adds delta to the balance of (contractorID, jettyID) and
// returns the row as written.
//
// A missing row is created with tonnage = delta when allowCreate is set and
// delta is positive; otherwise it is a NoStockFoundError. A result below
// zero is an InsufficientStockError. If every attempt loses its version
// check the call fails with ConcurrentModificationError. Exactly one row is
// inserted or updated on success.
//
// store is usually a transaction, so the caller can write its event or
// journal row atomically with the balance change.
func (l *StockLedger) ApplyDelta(ctx context.Context, store repository.LedgerStore, contractorID, jettyID int64, delta decimal.Decimal, allowCreate bool) (*models.StockBalance, error) {
	logger := l.logger.With(
		zap.Int64("contractor_id", contractorID),
		zap.Int64("jetty_id", jettyID),
		zap.String("delta", delta.String()),
	)
	l.operations.Add(1)

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		l.attempts.Add(1)

		current, err := store.FindStock(ctx, contractorID, jettyID)
		if err != nil {
			return nil, err
		}

		if current == nil {
			if !allowCreate {
				return nil, &NoStockFoundError{ContractorID: contractorID, JettyID: jettyID}
			}
			if !delta.IsPositive() {
				return nil, &InvalidTonnageError{Value: delta}
			}

			created, err := store.CreateStock(ctx, contractorID, jettyID, delta, l.Now())
			if err == nil {
				logger.Debug("Stock row created", zap.Int64("stock_id", created.ID))
				return created, nil
			}
			if !errors.Is(err, repository.ErrDuplicateKey) {
				return nil, err
			}

			// Another writer created the row first; continue against it.
			l.createRaces.Add(1)
			logger.Debug("Lost stock creation race, using existing row", zap.Int("attempt", attempt))

			current, err = store.FindStock(ctx, contractorID, jettyID)
			if err != nil {
				return nil, err
			}
			if current == nil {
				return nil, fmt.Errorf("stock row for contractor %d at jetty %d missing after duplicate insert", contractorID, jettyID)
			}
		}

		newTonnage := current.Tonnage.Add(delta)
		if newTonnage.IsNegative() {
			return nil, &InsufficientStockError{
				ContractorID: contractorID,
				JettyID:      jettyID,
				Available:    current.Tonnage,
				Requested:    delta.Neg(),
			}
		}

		updated, err := store.UpdateStockVersioned(ctx, current.ID, current.Version, newTonnage, l.Now())
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}

		l.conflicts.Add(1)
		logger.Info("🔁 Stock version conflict",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", l.maxAttempts),
			zap.Int64("expected_version", current.Version),
		)

		if attempt < l.maxAttempts {
			if err := l.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	l.exhausted.Add(1)
	logger.Warn("⚠️ Giving up after repeated version conflicts", zap.Int("attempts", l.maxAttempts))
	return nil, &ConcurrentModificationError{
		ContractorID: contractorID,
		JettyID:      jettyID,
		Attempts:     l.maxAttempts,
	}
}

func (l *StockLedger) wait(ctx context.Context, attempt int) error {
	if l.backoff <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(l.backoff * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats returns the protocol counters since start.
func (l *StockLedger) Stats() models.LedgerMetrics {
	return models.LedgerMetrics{
		Operations:       l.operations.Load(),
		Attempts:         l.attempts.Load(),
		VersionConflicts: l.conflicts.Load(),
		CreateRaces:      l.createRaces.Load(),
		ExhaustedRetries: l.exhausted.Load(),
	}
}
