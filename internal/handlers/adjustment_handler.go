package handlers

import (
	"net/http"
	"strconv"

	"coal-stock-service/internal/middleware"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AdjustmentHandler serves manual stock corrections and their approval.
type AdjustmentHandler struct {
	adjustmentService services.AdjustmentService
	validator         *validator.Validate
	logger            *zap.Logger
}

func NewAdjustmentHandler(adjustmentService services.AdjustmentService, logger *zap.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{
		adjustmentService: adjustmentService,
		validator:         validator.New(),
		logger:            logger,
	}
}

// CreateAdjustment applies a signed correction to a stock row
func (h *AdjustmentHandler) CreateAdjustment(c *gin.Context) {
	logger := h.logger.With(
		zap.String("handler", "create_adjustment"),
		zap.String("request_id", middleware.GetRequestID(c)),
	)

	var req models.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Error binding JSON", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		logger.Error("Validation error", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid input data", err)
		return
	}
	req.UserID = middleware.GetActorID(c)

	logger.Info("Adjustment received",
		zap.Int64("stock_id", req.StockID),
		zap.String("amount", req.AdjustmentAmount.String()),
		zap.String("reason", string(req.Reason)),
		zap.Int64("user_id", req.UserID))

	result, err := h.adjustmentService.AdjustStock(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, logger, "Adjustment could not be applied", err)
		return
	}

	logger.Info("Adjustment applied",
		zap.Int64("adjustment_id", result.Adjustment.ID),
		zap.Int64("version", result.Stock.Version))

	respondOK(c, http.StatusCreated, "Stock adjusted", result)
}

// ApproveAdjustment approves a pending adjustment as the current actor
func (h *AdjustmentHandler) ApproveAdjustment(c *gin.Context) {
	logger := h.logger.With(
		zap.String("handler", "approve_adjustment"),
		zap.String("request_id", middleware.GetRequestID(c)),
	)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	approverID := middleware.GetActorID(c)

	adjustment, err := h.adjustmentService.ApproveAdjustment(c.Request.Context(), id, approverID)
	if err != nil {
		respondServiceError(c, logger, "Adjustment could not be approved", err)
		return
	}

	logger.Info("Adjustment approved",
		zap.Int64("adjustment_id", id),
		zap.Int64("approver_id", approverID))

	respondOK(c, http.StatusOK, "Adjustment approved", adjustment)
}

// GetAdjustment returns one journal entry
func (h *AdjustmentHandler) GetAdjustment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	adjustment, err := h.adjustmentService.GetAdjustment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "Error getting adjustment", err)
		return
	}

	respondOK(c, http.StatusOK, "Adjustment retrieved", adjustment)
}

// ListAdjustments lists the journal, newest first
func (h *AdjustmentHandler) ListAdjustments(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "list_adjustments"))

	filter := &models.AdjustmentFilter{}
	var err error
	if filter.StockID, err = queryID(c, "stock_id"); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid filters", err)
		return
	}
	if filter.ContractorID, err = queryID(c, "contractor_id"); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid filters", err)
		return
	}
	if filter.JettyID, err = queryID(c, "jetty_id"); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid filters", err)
		return
	}
	if raw := c.Query("reason"); raw != "" {
		reason := models.AdjustmentReason(raw)
		filter.Reason = &reason
	}
	if raw := c.Query("pending_only"); raw != "" {
		if filter.PendingOnly, err = strconv.ParseBool(raw); err != nil {
			respondFail(c, http.StatusBadRequest, "Invalid filters", err)
			return
		}
	}
	if filter.Limit, filter.Offset, err = queryPage(c); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid filters", err)
		return
	}

	adjustments, err := h.adjustmentService.ListAdjustments(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, logger, "Error listing adjustments", err)
		return
	}

	logger.Info("Adjustments listed", zap.Int("count", len(adjustments)))

	respondOK(c, http.StatusOK, "Adjustments retrieved", gin.H{
		"adjustments": adjustments,
		"total":       len(adjustments),
		"filters":     filter,
	})
}

// AdjustmentReasons lists the accepted reason codes
func (h *AdjustmentHandler) AdjustmentReasons(c *gin.Context) {
	respondOK(c, http.StatusOK, "Adjustment reasons", models.AdjustmentReasons)
}
