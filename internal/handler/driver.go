package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
	"drivelink/internal/service"
)

// DriverHandler handles HTTP requests for drivers and their payouts.
type DriverHandler struct {
	driverRepo    repository.DriverRepository
	payoutService *service.PayoutService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverRepo repository.DriverRepository, payoutService *service.PayoutService) *DriverHandler {
	return &DriverHandler{driverRepo: driverRepo, payoutService: payoutService}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	RecipientCode string `json:"recipient_code"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	RecipientCode  string `json:"recipient_code"`
	TripsCompleted int    `json:"trips_completed"`
}

func driverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:             d.ID,
		Name:           d.Name,
		Phone:          d.Phone,
		RecipientCode:  d.RecipientCode,
		TripsCompleted: d.TripsCompleted,
	}
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	driver := &domain.Driver{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Phone:         req.Phone,
		RecipientCode: req.RecipientCode,
	}

	if err := h.driverRepo.Create(c.Request.Context(), driver); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, driverResponse(driver))
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.driverRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		resp = append(resp, driverResponse(d))
	}

	respondJSON(c, http.StatusOK, resp)
}

// UpdateRecipientRequest is the HTTP request body for setting a payout recipient.
type UpdateRecipientRequest struct {
	RecipientCode string `json:"recipient_code"`
}

// UpdateRecipient handles POST /v1/drivers/:id/recipient
func (h *DriverHandler) UpdateRecipient(c *gin.Context) {
	var req UpdateRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RecipientCode == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "recipient_code is required"})
		return
	}

	if err := h.driverRepo.UpdateRecipientCode(c.Request.Context(), c.Param("id"), req.RecipientCode); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "updated"})
}

// PayoutResponse is the HTTP response for payout data.
type PayoutResponse struct {
	ID                string    `json:"id"`
	DriverID          string    `json:"driver_id"`
	Amount            int64     `json:"amount"`
	TransferReference string    `json:"transfer_reference"`
	CreatedAt         time.Time `json:"created_at"`
}

// Withdraw handles POST /v1/drivers/:id/withdraw
func (h *DriverHandler) Withdraw(c *gin.Context) {
	payout, err := h.payoutService.Withdraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, PayoutResponse{
		ID:                payout.ID,
		DriverID:          payout.DriverID,
		Amount:            payout.Amount,
		TransferReference: payout.TransferReference,
		CreatedAt:         payout.CreatedAt,
	})
}

// ListPayouts handles GET /v1/drivers/:id/payouts
func (h *DriverHandler) ListPayouts(c *gin.Context) {
	payouts, err := h.payoutService.ListPayouts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]PayoutResponse, 0, len(payouts))
	for _, p := range payouts {
		resp = append(resp, PayoutResponse{
			ID:                p.ID,
			DriverID:          p.DriverID,
			Amount:            p.Amount,
			TransferReference: p.TransferReference,
			CreatedAt:         p.CreatedAt,
		})
	}

	respondJSON(c, http.StatusOK, resp)
}
