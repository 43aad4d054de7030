package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"coal-stock-service/internal/middleware"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.APIResponse{
		Success:   true,
		Message:   "✅ " + message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func respondFail(c *gin.Context, status int, message string, err error) {
	resp := models.APIResponse{
		Success:   false,
		Message:   "❌ " + message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		resp.Error = err.Error()
		resp.Retryable = services.IsRetryable(err)
		_ = c.Error(err)
	}
	c.JSON(status, resp)
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrActorRequired):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSelfApproval):
		return http.StatusForbidden
	case services.IsValidation(err):
		return http.StatusBadRequest
	case services.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs and writes a service error. Rejections are
// logged at info, failures at error.
func respondServiceError(c *gin.Context, logger *zap.Logger, message string, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetRequestID(c)),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("❌ "+message, fields...)
		// Internal details stay in the log.
		respondFail(c, status, message, errors.New("internal server error"))
		return
	}
	logger.Info("ℹ️ "+message, fields...)
	respondFail(c, status, message, err)
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondFail(c, http.StatusBadRequest, "Invalid "+name, errors.New(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func clampPage(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultPageSize
	}
	if *limit > maxPageSize {
		*limit = maxPageSize
	}
	if *offset < 0 {
		*offset = 0
	}
}
