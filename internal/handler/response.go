package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"drivelink/internal/repository"
	"drivelink/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrReservationNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrInvalidReservation),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidDisputeID),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest

	// Terminal business-state errors - Gone/Conflict
	case errors.Is(err, service.ErrReservationExpired):
		return http.StatusGone

	case errors.Is(err, service.ErrBookingNotPending),
		errors.Is(err, service.ErrBookingNotAccepted),
		errors.Is(err, service.ErrBookingNotConfirmable),
		errors.Is(err, service.ErrBookingNotCancellable),
		errors.Is(err, service.ErrBookingNotSettleable),
		errors.Is(err, service.ErrDisputeOpen),
		errors.Is(err, service.ErrPaymentNotSuccessful),
		errors.Is(err, service.ErrNothingToWithdraw),
		errors.Is(err, service.ErrNoRecipient):
		return http.StatusConflict

	// Transient/retryable upstream errors
	case errors.Is(err, service.ErrGatewayUnavailable),
		errors.Is(err, service.ErrTransferFailed):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
