// Package audit records who changed what. Recording is fire-and-forget:
// a failing sink never fails the operation that produced the entry.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Actions written by the stock services.
const (
	ActionProductionCreate  = "production.create"
	ActionBargingCreate     = "barging.create"
	ActionStockAdjust       = "stock.adjust"
	ActionAdjustmentApprove = "stock.adjustment.approve"
)

// Entity types referenced by EntityID.
const (
	EntityProduction      = "production"
	EntityBarging         = "barging"
	EntityStockAdjustment = "stock_adjustment"
)

// Entry is one audit log line.
type Entry struct {
	UserID     int64
	Action     string
	EntityType string
	EntityID   int64
	Details    map[string]interface{}
	CreatedAt  time.Time
}

// Recorder accepts audit entries. Implementations must not block the caller
// for long and never report errors back.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

// LogRecorder writes entries to the application log.
type LogRecorder struct {
	logger *zap.Logger
}

func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.Named("audit")}
}

func (r *LogRecorder) Record(_ context.Context, e Entry) {
	r.logger.Info("📝 Audit",
		zap.Int64("user_id", e.UserID),
		zap.String("action", e.Action),
		zap.String("entity_type", e.EntityType),
		zap.Int64("entity_id", e.EntityID),
		zap.Any("details", e.Details),
	)
}

// Multi fans an entry out to several recorders.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e Entry) {
	for _, r := range m {
		r.Record(ctx, e)
	}
}
