package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"fruitbid/internal/biddingerrors"
	"fruitbid/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrLotNotFound):
		return http.StatusNotFound, "lot not found"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount below base price"
	case errors.Is(err, biddingerrors.ErrInvalidLot):
		return http.StatusBadRequest, "invalid lot details"
	case errors.Is(err, biddingerrors.ErrMissingName):
		return http.StatusBadRequest, "name is required"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ParseLotID reads a positive lot id from the named path parameter
func ParseLotID(c *gin.Context, param string) (int64, error) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: lot id %q", biddingerrors.ErrLotNotFound, raw)
	}
	return id, nil
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
