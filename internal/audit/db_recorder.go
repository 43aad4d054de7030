package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// DBRecorder persists entries to audit_logs from a background worker.
// Record only enqueues; when the buffer is full the entry is dropped and a
// warning is logged.
type DBRecorder struct {
	stmt    *sql.Stmt
	entries chan Entry
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewDBRecorder prepares the insert and starts the worker.
func NewDBRecorder(db *sql.DB, bufferSize int, logger *zap.Logger) (*DBRecorder, error) {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	stmt, err := db.Prepare(`
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare audit insert: %w", err)
	}

	r := &DBRecorder{
		stmt:    stmt,
		entries: make(chan Entry, bufferSize),
		logger:  logger.Named("audit"),
	}

	r.wg.Add(1)
	go r.run()

	return r, nil
}

func (r *DBRecorder) Record(_ context.Context, e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(e, "recorder closed")
		return
	}

	select {
	case r.entries <- e:
	default:
		r.drop(e, "buffer full")
	}
}

func (r *DBRecorder) drop(e Entry, reason string) {
	r.dropped.Add(1)
	r.logger.Warn("⚠️ Audit entry dropped",
		zap.String("reason", reason),
		zap.String("action", e.Action),
		zap.Int64("entity_id", e.EntityID),
	)
}

func (r *DBRecorder) run() {
	defer r.wg.Done()

	for e := range r.entries {
		if err := r.write(e); err != nil {
			r.failed.Add(1)
			r.logger.Error("❌ Failed to write audit entry",
				zap.String("action", e.Action),
				zap.Int64("entity_id", e.EntityID),
				zap.Error(err),
			)
			continue
		}
		r.written.Add(1)
	}
}

func (r *DBRecorder) write(e Entry) error {
	details := []byte("{}")
	if len(e.Details) > 0 {
		var err error
		details, err = json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("failed to encode details: %w", err)
		}
	}

	var userID interface{}
	if e.UserID > 0 {
		userID = e.UserID
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err := r.stmt.ExecContext(ctx, userID, e.Action, e.EntityType, e.EntityID, string(details), e.CreatedAt)
	return err
}

// Close stops accepting entries, drains the buffer and releases the
// statement.
func (r *DBRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.entries)
	r.mu.Unlock()

	r.wg.Wait()
	return r.stmt.Close()
}

// Stats returns written, dropped and failed counts.
func (r *DBRecorder) Stats() (written, dropped, failed int64) {
	return r.written.Load(), r.dropped.Load(), r.failed.Load()
}
