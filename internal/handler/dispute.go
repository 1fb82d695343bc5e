package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"drivelink/internal/service"
)

// DisputeHandler handles HTTP requests for disputes.
type DisputeHandler struct {
	disputeService *service.DisputeService
}

// NewDisputeHandler creates a new DisputeHandler.
func NewDisputeHandler(disputeService *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

// OpenDisputeRequest is the HTTP request body for opening a dispute.
type OpenDisputeRequest struct {
	BookingID string `json:"booking_id"`
	RaisedBy  string `json:"raised_by"`
	Reason    string `json:"reason"`
}

// DisputeResponse is the HTTP response for dispute data.
type DisputeResponse struct {
	ID         string     `json:"id"`
	BookingID  string     `json:"booking_id"`
	RaisedBy   string     `json:"raised_by"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Open handles POST /v1/disputes
func (h *DisputeHandler) Open(c *gin.Context) {
	var req OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.BookingID == "" || req.Reason == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "booking_id and reason are required"})
		return
	}

	dispute, err := h.disputeService.Open(c.Request.Context(), service.OpenRequest{
		BookingID: req.BookingID,
		RaisedBy:  req.RaisedBy,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, DisputeResponse{
		ID:        dispute.ID,
		BookingID: dispute.BookingID,
		RaisedBy:  dispute.RaisedBy,
		Reason:    dispute.Reason,
		Status:    string(dispute.Status),
	})
}

// Resolve handles POST /v1/disputes/:id/resolve
func (h *DisputeHandler) Resolve(c *gin.Context) {
	dispute, err := h.disputeService.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := DisputeResponse{
		ID:        dispute.ID,
		BookingID: dispute.BookingID,
		RaisedBy:  dispute.RaisedBy,
		Reason:    dispute.Reason,
		Status:    string(dispute.Status),
	}
	if !dispute.ResolvedAt.IsZero() {
		resp.ResolvedAt = &dispute.ResolvedAt
	}

	respondJSON(c, http.StatusOK, resp)
}
