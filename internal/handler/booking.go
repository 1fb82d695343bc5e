package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"drivelink/internal/domain"
	"drivelink/internal/redis"
	"drivelink/internal/repository"
	"drivelink/internal/service"
)

// BookingHandler handles HTTP requests for reservations and bookings.
// Authorization (who may act for which party) is enforced upstream; the
// routes still bind each confirmation endpoint to its own party so neither
// side can ever set the other's flag.
type BookingHandler struct {
	bookingService *service.BookingService
	completion     *service.CompletionService
	cache          *redis.CacheStore
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, completion *service.CompletionService, cache *redis.CacheStore) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		completion:     completion,
		cache:          cache,
	}
}

// CreateReservationRequest is the HTTP request body for a booking intent.
type CreateReservationRequest struct {
	ClientID       string `json:"client_id"`
	DriverID       string `json:"driver_id"`
	PickupAddress  string `json:"pickup_addr"`
	DropoffAddress string `json:"dropoff_addr"`
	Price          int64  `json:"price"`
}

// ReservationResponse is the HTTP response for a reservation.
type ReservationResponse struct {
	ID        string    `json:"id"`
	Price     int64     `json:"price"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BookingResponse is the HTTP response for booking data.
type BookingResponse struct {
	ID              string `json:"id"`
	ClientID        string `json:"client_id"`
	DriverID        string `json:"driver_id"`
	PickupAddress   string `json:"pickup_addr"`
	DropoffAddress  string `json:"dropoff_addr"`
	Price           int64  `json:"price"`
	PaymentState    string `json:"payment_state"`
	TripState       string `json:"trip_state"`
	DriverConfirmed bool   `json:"driver_confirmed"`
	ClientConfirmed bool   `json:"client_confirmed"`
}

func bookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		ClientID:        b.ClientID,
		DriverID:        b.DriverID,
		PickupAddress:   b.PickupAddress,
		DropoffAddress:  b.DropoffAddress,
		Price:           b.Price,
		PaymentState:    string(b.PaymentState),
		TripState:       string(b.TripState),
		DriverConfirmed: b.DriverConfirmed,
		ClientConfirmed: b.ClientConfirmed,
	}
}

// CreateReservation handles POST /v1/reservations
func (h *BookingHandler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.bookingService.CreateReservation(c.Request.Context(), service.CreateReservationRequest{
		ClientID:       req.ClientID,
		DriverID:       req.DriverID,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		Price:          req.Price,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ReservationResponse{
		ID:        res.ID,
		Price:     res.Price,
		ExpiresAt: res.ExpiresAt,
	})
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID := c.Param("id")

	if h.cache != nil {
		if cached, err := h.cache.GetBooking(c.Request.Context(), bookingID); err == nil && cached != nil {
			respondJSON(c, http.StatusOK, BookingResponse{
				ID:              cached.ID,
				ClientID:        cached.ClientID,
				DriverID:        cached.DriverID,
				Price:           cached.Price,
				PaymentState:    cached.PaymentState,
				TripState:       cached.TripState,
				DriverConfirmed: cached.DriverConfirmed,
				ClientConfirmed: cached.ClientConfirmed,
			})
			return
		}
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// Accept handles POST /v1/bookings/:id/accept
func (h *BookingHandler) Accept(c *gin.Context) {
	booking, err := h.bookingService.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// Start handles POST /v1/bookings/:id/start
func (h *BookingHandler) Start(c *gin.Context) {
	booking, err := h.bookingService.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// Cancel handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// ConfirmResponse is the HTTP response for a confirmation call.
type ConfirmResponse struct {
	Booking         BookingResponse `json:"booking"`
	Completed       bool            `json:"completed"`
	DisputeDeferred bool            `json:"dispute_deferred"`
}

// ConfirmAsClient handles POST /v1/bookings/:id/confirm/client
func (h *BookingHandler) ConfirmAsClient(c *gin.Context) {
	h.confirm(c, repository.PartyClient)
}

// ConfirmAsDriver handles POST /v1/bookings/:id/confirm/driver
func (h *BookingHandler) ConfirmAsDriver(c *gin.Context) {
	h.confirm(c, repository.PartyDriver)
}

func (h *BookingHandler) confirm(c *gin.Context, party repository.ConfirmingParty) {
	result, err := h.completion.ConfirmTrip(c.Request.Context(), c.Param("id"), party)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		_ = h.cache.InvalidateBooking(c.Request.Context(), result.Booking.ID)
	}

	respondJSON(c, http.StatusOK, ConfirmResponse{
		Booking:         bookingResponse(result.Booking),
		Completed:       result.Completed,
		DisputeDeferred: result.DisputeDeferred,
	})
}
