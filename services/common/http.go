package common

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AbortWithError maps a core error onto an HTTP response.
func AbortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		insufficient *InsufficientStockError
		transition   *TransitionError
		invalidState *InvalidStateError
		capacity     *CapacityError
		conflict     *ConflictError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &insufficient),
		errors.As(err, &transition),
		errors.As(err, &invalidState),
		errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &capacity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ActorID reads the acting user forwarded by the authentication layer.
// Returns nil when the header is absent or malformed.
func ActorID(c *gin.Context) *int64 {
	raw := c.GetHeader("X-Actor-ID")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
