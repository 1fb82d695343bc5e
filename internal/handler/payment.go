package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drivelink/internal/service"
)

// PaymentHandler handles HTTP requests for payments. The redirect callback
// and the manual verification poll both verify the reference at the gateway
// and then call the same Finalize entry point the webhook uses.
type PaymentHandler struct {
	bookingService *service.BookingService
	finalizer      *service.PaymentFinalizer
	gateway        service.Gateway
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(bookingService *service.BookingService, finalizer *service.PaymentFinalizer, gateway service.Gateway) *PaymentHandler {
	return &PaymentHandler{
		bookingService: bookingService,
		finalizer:      finalizer,
		gateway:        gateway,
	}
}

// InitializeRequest is the HTTP request body for starting a payment.
type InitializeRequest struct {
	ReservationID string `json:"reservation_id"`
	Email         string `json:"email"`
}

// InitializeResponse is the HTTP response for a started payment.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// FinalizeResponse is the HTTP response for a finalized payment.
type FinalizeResponse struct {
	BookingID        string `json:"booking_id"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// Initialize handles POST /v1/payments/initialize
func (h *PaymentHandler) Initialize(c *gin.Context) {
	var req InitializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.ReservationID == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "reservation_id and email are required"})
		return
	}

	auth, err := h.bookingService.InitializeCharge(c.Request.Context(), service.InitializeChargeRequest{
		ReservationID: req.ReservationID,
		Email:         req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, InitializeResponse{
		AuthorizationURL: auth.AuthorizationURL,
		Reference:        auth.Reference,
	})
}

// Callback handles GET /v1/payments/callback?reference=...
// This is where the gateway redirects the client's browser after checkout.
func (h *PaymentHandler) Callback(c *gin.Context) {
	h.verifyAndFinalize(c, c.Query("reference"))
}

// Verify handles POST /v1/payments/:reference/verify
// Manual poll for support staff and clients whose redirect never landed.
func (h *PaymentHandler) Verify(c *gin.Context) {
	h.verifyAndFinalize(c, c.Param("reference"))
}

func (h *PaymentHandler) verifyAndFinalize(c *gin.Context, reference string) {
	if reference == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "reference is required"})
		return
	}

	tx, err := h.gateway.VerifyTransaction(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}

	if !tx.TransactionSuccessful() {
		respondError(c, service.ErrPaymentNotSuccessful)
		return
	}

	result, err := h.finalizer.Finalize(c.Request.Context(), tx.Reference, tx.Metadata["reservation_id"], tx.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FinalizeResponse{
		BookingID:        result.BookingID,
		AlreadyProcessed: result.AlreadyProcessed,
	})
}
