package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/miko-factory/creamdash/internal/api/shared/errors"
	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...).Wrap())
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(message, details...).Wrap())
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, apierrors.NewValidationError(details).Wrap())
}

// respondInternalError responds with an internal server error and logs the cause
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.ErrorCtx(c.Request.Context(), err, fields...)
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message).Wrap())
}

// respondError maps a service error onto an API error response
func respondError(c *gin.Context, err error, message string) {
	var sourceErr *domain.SourceError
	switch {
	case errors.As(err, &sourceErr):
		c.JSON(http.StatusBadGateway, apierrors.NewSourceError(sourceErr.Message).Wrap())
	case errors.Is(err, domain.ErrSourceFailure):
		c.JSON(http.StatusBadGateway, apierrors.NewSourceError(domain.DEFAULT_SOURCE_ERROR_MESSAGE).Wrap())
	case errors.Is(err, domain.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, apierrors.NewNotReadyError("Dashboard data is still loading").Wrap())
	case errors.Is(err, dashboard.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, apierrors.NewServiceError(message, err.Error()).Wrap())
	case errors.Is(err, domain.ErrInvalidInput):
		respondValidationError(c, err.Error())
	case errors.Is(err, domain.ErrBatchNotFound):
		respondNotFound(c, "Batch not found")
	case errors.Is(err, domain.ErrStationNotFound):
		respondNotFound(c, "Station not found")
	case errors.Is(err, domain.ErrUnitNotCompleted):
		respondNotFound(c, "Unit not found", err.Error())
	case errors.Is(err, domain.ErrOperatorNotFound):
		respondNotFound(c, "No operator matches the scanned badge")
	case errors.Is(err, domain.ErrSessionNotFound):
		respondNotFound(c, "Session not found")
	default:
		respondInternalError(c, err, message, zap.String("path", c.Request.URL.Path))
	}
}
