package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"coal-stock-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestDBRecorder_WritesOnClose(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	seed := testutil.SeedMaster(t, db)

	rec, err := NewDBRecorder(db.DB, 16, zaptest.NewLogger(t))
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rec.Record(ctx, Entry{
		UserID:     seed.OperatorID,
		Action:     ActionBargingCreate,
		EntityType: EntityBarging,
		EntityID:   7,
		Details:    map[string]interface{}{"ship_name": "TB Sinar Laut 7", "tonnage": "600.00"},
		CreatedAt:  at,
	})
	rec.Record(ctx, Entry{Action: ActionStockAdjust, EntityType: EntityStockAdjustment, EntityID: 8})

	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close(), "second close is a no-op")

	written, dropped, failed := rec.Stats()
	assert.Equal(t, int64(2), written)
	assert.Zero(t, dropped)
	assert.Zero(t, failed)

	var (
		action  string
		details string
		count   int
	)
	require.NoError(t, db.DB.QueryRowContext(ctx,
		"SELECT action, details FROM audit_logs WHERE entity_id = $1", 7,
	).Scan(&action, &details))
	assert.Equal(t, ActionBargingCreate, action)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(details), &decoded))
	assert.Equal(t, "TB Sinar Laut 7", decoded["ship_name"])

	require.NoError(t, db.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_logs WHERE user_id IS NULL",
	).Scan(&count))
	assert.Equal(t, 1, count, "system entries are stored without a user")
}

func TestDBRecorder_RecordAfterCloseIsDropped(t *testing.T) {
	db := testutil.NewDB(t)

	rec, err := NewDBRecorder(db.DB, 1, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), Entry{Action: ActionStockAdjust})
	})
	_, dropped, _ := rec.Stats()
	assert.Equal(t, int64(1), dropped)
}

func TestLogRecorder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := NewLogRecorder(zap.New(core))

	Multi{rec, Nop{}}.Record(context.Background(), Entry{
		UserID:     3,
		Action:     ActionAdjustmentApprove,
		EntityType: EntityStockAdjustment,
		EntityID:   11,
	})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, ActionAdjustmentApprove, fields["action"])
	assert.Equal(t, int64(11), fields["entity_id"])
}
