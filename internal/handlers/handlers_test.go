package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"coal-stock-service/internal/audit"
	"coal-stock-service/internal/handlers"
	"coal-stock-service/internal/middleware"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/repository"
	"coal-stock-service/internal/routes"
	"coal-stock-service/internal/services"
	"coal-stock-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testServer struct {
	router *gin.Engine
	seed   testutil.Seed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	db := testutil.NewDB(t)
	seed := testutil.SeedMaster(t, db)

	repo, err := repository.NewStockRepository(db.DB)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ledger := services.NewStockLedger(services.LedgerOptions{MaxAttempts: 3, RetryBackoff: time.Millisecond}, logger)
	recorder := audit.NewLogRecorder(logger)

	production := services.NewProductionService(repo, ledger, nil, recorder, logger)
	barging := services.NewBargingService(repo, ledger, nil, recorder, logger)
	adjustments := services.NewAdjustmentService(repo, ledger, nil, recorder, logger)
	stock := services.NewStockService(repo, nil, logger)
	monitoring := services.NewMonitoringService(logger, nil, nil, db, nil, ledger)

	monitoringHandler := handlers.NewMonitoringHandler(monitoring, logger)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(monitoringHandler.RecordRequestMiddleware())
	routes.SetupRoutes(router,
		handlers.NewStockHandler(production, barging, stock, logger),
		handlers.NewAdjustmentHandler(adjustments, logger),
		monitoringHandler,
		middleware.NewHealthChecker(db, nil, logger),
	)

	return &testServer{router: router, seed: seed}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, actor int64) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != 0 {
		req.Header.Set(middleware.ActorHeader, strconv.FormatInt(actor, 10))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Error     string          `json:"error"`
	Retryable bool            `json:"retryable"`
	Data      json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

type stockBody struct {
	ID      int64           `json:"id"`
	Tonnage decimal.Decimal `json:"tonnage"`
	Version int64           `json:"version"`
}

func (s *testServer) produce(t *testing.T, tonnage string) stockBody {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/production", gin.H{
		"contractor_id": s.seed.ContractorID,
		"jetty_id":      s.seed.JettyID,
		"truck_number":  "KT 1234 XY",
		"tonnage":       tonnage,
	}, s.seed.OperatorID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result struct {
		Stock stockBody `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	return result.Stock
}

func (s *testServer) barge(t *testing.T, tonnage string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/v1/barging", gin.H{
		"contractor_id": s.seed.ContractorID,
		"jetty_id":      s.seed.JettyID,
		"ship_name":     "MV Mahakam",
		"tonnage":       tonnage,
	}, s.seed.OperatorID)
}

func TestProductionAndStockQuery(t *testing.T) {
	s := newTestServer(t)

	stock := s.produce(t, "25.5")
	assert.True(t, stock.Tonnage.Equal(decimal.RequireFromString("25.5")))
	assert.Equal(t, int64(1), stock.Version)

	w := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/stock/contractors/%d/jetties/%d", s.seed.ContractorID, s.seed.JettyID), nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	var got stockBody
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.True(t, got.Tonnage.Equal(decimal.RequireFromString("25.5")))

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/production?contractor_id=%d&from=2000-01-01", s.seed.ContractorID), nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	assert.Equal(t, 1, list.Total)

	w = s.do(t, http.MethodGet, "/api/v1/stock?non_zero_only=true", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Kaltim Prima Coal")
}

func TestMutationErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t)

	t.Run("no actor", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/production", gin.H{
			"contractor_id": s.seed.ContractorID,
			"jetty_id":      s.seed.JettyID,
			"truck_number":  "KT 1",
			"tonnage":       "1",
		}, 0)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, decode(t, w).Error, "actor is required")
	})

	t.Run("malformed actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
		req.Header.Set(middleware.ActorHeader, "abc")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing required field", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/production", gin.H{
			"contractor_id": s.seed.ContractorID,
			"jetty_id":      s.seed.JettyID,
			"tonnage":       "1",
		}, s.seed.OperatorID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative tonnage", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/production", gin.H{
			"contractor_id": s.seed.ContractorID,
			"jetty_id":      s.seed.JettyID,
			"truck_number":  "KT 1",
			"tonnage":       "-3",
		}, s.seed.OperatorID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w).Error, "cannot be negative")
	})

	t.Run("inactive jetty", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/production", gin.H{
			"contractor_id": s.seed.ContractorID,
			"jetty_id":      s.seed.InactiveJettyID,
			"truck_number":  "KT 1",
			"tonnage":       "3",
		}, s.seed.OperatorID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w).Error, "inactive")
	})

	t.Run("unknown contractor", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/production", gin.H{
			"contractor_id": 9999,
			"jetty_id":      s.seed.JettyID,
			"truck_number":  "KT 1",
			"tonnage":       "3",
		}, s.seed.OperatorID)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, decode(t, w).Error, "not found")
	})

	t.Run("barging without stock", func(t *testing.T) {
		w := s.barge(t, "10")
		assert.Equal(t, http.StatusConflict, w.Code)
		env := decode(t, w)
		assert.Contains(t, env.Error, "no stock found")
		assert.False(t, env.Retryable)
	})

	t.Run("barging more than available", func(t *testing.T) {
		s.produce(t, "100")
		w := s.barge(t, "150")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, decode(t, w).Error, "insufficient stock")
	})

	t.Run("stock query for unknown pair", func(t *testing.T) {
		w := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/stock/contractors/%d/jetties/%d", s.seed.OtherContractorID, s.seed.JettyID), nil, 0)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad date filter", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/barging?from=01-02-2024", nil, 0)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdjustmentFlow(t *testing.T) {
	s := newTestServer(t)
	stock := s.produce(t, "100")

	w := s.do(t, http.MethodPost, "/api/v1/stock/adjustments", gin.H{
		"stock_id":           stock.ID,
		"adjustment_amount":  "-2.5",
		"reason":             "spillage",
		"reason_description": "conveyor spill at jetty A",
	}, s.seed.OperatorID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Adjustment struct {
			ID              int64           `json:"id"`
			PreviousTonnage decimal.Decimal `json:"previous_tonnage"`
			NewTonnage      decimal.Decimal `json:"new_tonnage"`
		} `json:"adjustment"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.True(t, created.Adjustment.PreviousTonnage.Equal(decimal.NewFromInt(100)))
	assert.True(t, created.Adjustment.NewTonnage.Equal(decimal.RequireFromString("97.5")))

	approvePath := fmt.Sprintf("/api/v1/stock/adjustments/%d/approve", created.Adjustment.ID)

	w = s.do(t, http.MethodPost, approvePath, nil, s.seed.OperatorID)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, approvePath, nil, s.seed.SupervisorID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, approvePath, nil, s.seed.SupervisorID)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/stock/adjustments/424242/approve", nil, s.seed.SupervisorID)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/stock/adjustments?pending_only=false&reason=spillage", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Adjustments []models.AdjustmentWithDetails `json:"adjustments"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	require.Len(t, list.Adjustments, 1)
	assert.Equal(t, "Budi Operator", list.Adjustments[0].UserName)
	assert.Equal(t, "supervisor", list.Adjustments[0].ApproverName)
}

func TestAdjustmentRejections(t *testing.T) {
	s := newTestServer(t)
	stock := s.produce(t, "10")

	w := s.do(t, http.MethodPost, "/api/v1/stock/adjustments", gin.H{
		"stock_id":           stock.ID,
		"adjustment_amount":  "-1",
		"reason":             "theft",
		"reason_description": "n/a",
	}, s.seed.OperatorID)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/stock/adjustments", gin.H{
		"stock_id":           stock.ID,
		"adjustment_amount":  "-10.5",
		"reason":             "waste",
		"reason_description": "weighbridge recalibration",
	}, s.seed.OperatorID)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w).Error, "cannot be negative")

	w = s.do(t, http.MethodGet, "/api/v1/stock/adjustments/abc", nil, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.produce(t, "1")

	w := s.do(t, http.MethodGet, "/health", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = s.do(t, http.MethodGet, "/api/v1/monitoring/metrics", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)

	var metrics models.MonitoringResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, 1, metrics.Requests.ByEndpoint["POST /api/v1/production"].Count)
	assert.Equal(t, int64(1), metrics.Ledger.Operations)
	assert.Equal(t, "online", metrics.Database.Status)
}
