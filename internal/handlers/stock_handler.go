package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"coal-stock-service/internal/middleware"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// StockHandler serves coal movements in and out of the stockpiles and the
// balance queries.
type StockHandler struct {
	productionService services.ProductionService
	bargingService    services.BargingService
	stockService      services.StockService
	validator         *validator.Validate
	logger            *zap.Logger
}

// NewStockHandler creates the handler
func NewStockHandler(
	productionService services.ProductionService,
	bargingService services.BargingService,
	stockService services.StockService,
	logger *zap.Logger,
) *StockHandler {
	return &StockHandler{
		productionService: productionService,
		bargingService:    bargingService,
		stockService:      stockService,
		validator:         validator.New(),
		logger:            logger,
	}
}

// logDebug only shows up in debug mode
func (h *StockHandler) logDebug(msg string, fields ...zap.Field) {
	h.logger.Debug("🔍 [DEBUG] "+msg, fields...)
}

func (h *StockHandler) logInfo(msg string, fields ...zap.Field) {
	h.logger.Info("ℹ️ "+msg, fields...)
}

func (h *StockHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

func (h *StockHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// bindBody decodes and validates a JSON body, answering 400 on failure.
func (h *StockHandler) bindBody(c *gin.Context, req interface{}) bool {
	if h.logger.Core().Enabled(zap.DebugLevel) {
		body, _ := c.GetRawData()
		h.logDebug("Raw body received", zap.String("body", string(body)))
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	if err := c.ShouldBindJSON(req); err != nil {
		h.logError("Error binding JSON", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		h.logError("Validation error", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid input data", err)
		return false
	}
	return true
}

// RecordProduction records a truck intake
func (h *StockHandler) RecordProduction(c *gin.Context) {
	start := time.Now()

	var req models.ProductionRequest
	if !h.bindBody(c, &req) {
		return
	}
	req.OperatorID = middleware.GetActorID(c)

	h.logInfo("Production received",
		zap.Int64("contractor_id", req.ContractorID),
		zap.Int64("jetty_id", req.JettyID),
		zap.String("truck_number", req.TruckNumber),
		zap.String("tonnage", req.Tonnage.String()),
		zap.Int64("operator_id", req.OperatorID))

	result, err := h.productionService.RecordProduction(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, "Production could not be recorded", err)
		return
	}

	h.logSuccess("Production recorded",
		zap.Int64("production_id", result.Production.ID),
		zap.String("balance", models.FormatTonnage(result.Stock.Tonnage)),
		zap.Int64("version", result.Stock.Version),
		zap.Duration("latency", time.Since(start)))

	respondOK(c, http.StatusCreated, "Production recorded", result)
}

// RecordBarging records coal loaded onto a ship
func (h *StockHandler) RecordBarging(c *gin.Context) {
	start := time.Now()

	var req models.BargingRequest
	if !h.bindBody(c, &req) {
		return
	}
	req.OperatorID = middleware.GetActorID(c)

	h.logInfo("Barging received",
		zap.Int64("contractor_id", req.ContractorID),
		zap.Int64("jetty_id", req.JettyID),
		zap.String("ship_name", req.ShipName),
		zap.String("tonnage", req.Tonnage.String()),
		zap.Int64("operator_id", req.OperatorID))

	result, err := h.bargingService.RecordBarging(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, "Barging could not be recorded", err)
		return
	}

	h.logSuccess("Barging recorded",
		zap.Int64("barging_id", result.Barging.ID),
		zap.String("balance", models.FormatTonnage(result.Stock.Tonnage)),
		zap.Int64("version", result.Stock.Version),
		zap.Duration("latency", time.Since(start)))

	respondOK(c, http.StatusCreated, "Barging recorded", result)
}

// ListStock lists balances with contractor and jetty names
func (h *StockHandler) ListStock(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "list_stock"))

	filter := &models.StockFilter{}
	var err error
	if filter.ContractorID, err = queryID(c, "contractor_id"); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid contractor_id", err)
		return
	}
	if filter.JettyID, err = queryID(c, "jetty_id"); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid jetty_id", err)
		return
	}
	if raw := c.Query("non_zero_only"); raw != "" {
		if filter.NonZeroOnly, err = strconv.ParseBool(raw); err != nil {
			respondFail(c, http.StatusBadRequest, "Invalid non_zero_only", err)
			return
		}
	}

	stocks, err := h.stockService.ListStock(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, logger, "Error listing stock", err)
		return
	}

	logger.Info("Stock listed", zap.Int("count", len(stocks)))

	respondOK(c, http.StatusOK, "Stock retrieved", gin.H{
		"stocks":  stocks,
		"total":   len(stocks),
		"filters": filter,
	})
}

// GetStock returns the balance of one contractor at one jetty
func (h *StockHandler) GetStock(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "get_stock"))

	contractorID, ok := paramID(c, "contractor_id")
	if !ok {
		return
	}
	jettyID, ok := paramID(c, "jetty_id")
	if !ok {
		return
	}

	stock, err := h.stockService.GetStock(c.Request.Context(), contractorID, jettyID)
	if err != nil {
		if errors.Is(err, services.ErrNoStockFound) {
			respondFail(c, http.StatusNotFound, "No stock for this contractor at this jetty", err)
			return
		}
		respondServiceError(c, logger, "Error getting stock", err)
		return
	}

	logger.Debug("Stock retrieved",
		zap.Int64("contractor_id", contractorID),
		zap.Int64("jetty_id", jettyID),
		zap.Int64("version", stock.Version))

	respondOK(c, http.StatusOK, "Stock retrieved", stock)
}

// ListProductions lists intakes, newest first
func (h *StockHandler) ListProductions(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "list_productions"))

	filter, err := movementFilter(c)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid filters", err)
		return
	}

	productions, err := h.stockService.ListProductions(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, logger, "Error listing productions", err)
		return
	}

	logger.Info("Productions listed", zap.Int("count", len(productions)))

	respondOK(c, http.StatusOK, "Productions retrieved", gin.H{
		"productions": productions,
		"total":       len(productions),
		"filters":     filter,
	})
}

// ListBargings lists outflows, newest first
func (h *StockHandler) ListBargings(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "list_bargings"))

	filter, err := movementFilter(c)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid filters", err)
		return
	}

	bargings, err := h.stockService.ListBargings(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, logger, "Error listing bargings", err)
		return
	}

	logger.Info("Bargings listed", zap.Int("count", len(bargings)))

	respondOK(c, http.StatusOK, "Bargings retrieved", gin.H{
		"bargings": bargings,
		"total":    len(bargings),
		"filters":  filter,
	})
}

// movementFilter parses contractor_id, jetty_id, from, to (YYYY-MM-DD,
// both inclusive), limit and offset.
func movementFilter(c *gin.Context) (*models.MovementFilter, error) {
	filter := &models.MovementFilter{}
	var err error

	if filter.ContractorID, err = queryID(c, "contractor_id"); err != nil {
		return nil, err
	}
	if filter.JettyID, err = queryID(c, "jetty_id"); err != nil {
		return nil, err
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		return nil, err
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, errors.New("to must not be before from")
	}
	if filter.Limit, filter.Offset, err = queryPage(c); err != nil {
		return nil, err
	}
	return filter, nil
}

func queryID(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New(name + " must be a positive integer")
	}
	return &id, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errors.New(name + " must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

func queryPage(c *gin.Context) (limit, offset int, err error) {
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, errors.New("limit must be an integer")
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			return 0, 0, errors.New("offset must be an integer")
		}
	}
	clampPage(&limit, &offset)
	return limit, offset, nil
}
