package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"drivelink/internal/gateway/paystack"
	"drivelink/internal/service"
)

// WebhookHandler receives signed gateway events. The signature is checked
// against the raw body before any parsing; a payload that fails the check
// causes no side effect at all.
type WebhookHandler struct {
	finalizer *service.PaymentFinalizer
	secretKey string
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(finalizer *service.PaymentFinalizer, secretKey string) *WebhookHandler {
	return &WebhookHandler{finalizer: finalizer, secretKey: secretKey}
}

// webhookEvent is the gateway's event envelope.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string            `json:"reference"`
		Amount    int64             `json:"amount"`
		Status    string            `json:"status"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

// HandleEvent handles POST /v1/payments/webhook
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable body"})
		return
	}

	signature := c.GetHeader(paystack.SignatureHeader)
	if !paystack.ValidSignature(h.secretKey, body, signature) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payload"})
		return
	}

	// Only successful charges feed the finalizer. Everything else is
	// acknowledged so the gateway stops redelivering it.
	if event.Event != "charge.success" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	result, err := h.finalizer.Finalize(
		c.Request.Context(),
		event.Data.Reference,
		event.Data.Metadata["reservation_id"],
		event.Data.Amount,
	)
	if err != nil {
		// Terminal failures are acknowledged; returning an error would only
		// trigger redelivery of an event that can never finalize.
		if code := mapErrorToHTTPStatus(err); code < http.StatusInternalServerError {
			log.Printf("webhook: reference %s not finalized: %v", event.Data.Reference, err)
			c.JSON(http.StatusOK, gin.H{"status": "rejected"})
			return
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"booking_id":        result.BookingID,
		"already_processed": result.AlreadyProcessed,
	})
}
