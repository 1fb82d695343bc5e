package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"drivelink/internal/domain"
	"drivelink/internal/redis"
	"drivelink/internal/repository"
)

// BookingService handles the trip lifecycle around the escrow core:
// reservation intake, driver acceptance, trip start, and cancellation.
type BookingService struct {
	bookingRepo  repository.BookingRepository
	txRepo       repository.TransactionRepository
	reservations redis.ReservationStoreInterface
	cache        *redis.CacheStore
	gateway      Gateway
	notifier     *NotificationService
	quoteTTL     time.Duration
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	txRepo repository.TransactionRepository,
	reservations redis.ReservationStoreInterface,
	cache *redis.CacheStore,
	gateway Gateway,
	notifier *NotificationService,
	quoteTTL time.Duration,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		txRepo:       txRepo,
		reservations: reservations,
		cache:        cache,
		gateway:      gateway,
		notifier:     notifier,
		quoteTTL:     quoteTTL,
	}
}

// CreateReservationRequest carries a priced booking intent from upstream.
// The price is computed by the routing collaborator and treated as opaque.
type CreateReservationRequest struct {
	ClientID       string
	DriverID       string
	PickupAddress  string
	DropoffAddress string
	Price          int64
}

// CreateReservation stores a quote with the configured TTL.
func (s *BookingService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error) {
	if req.ClientID == "" || req.DriverID == "" {
		return nil, ErrInvalidReservation
	}
	if req.Price <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now()
	res := &domain.Reservation{
		ID:             uuid.New().String(),
		ClientID:       req.ClientID,
		DriverID:       req.DriverID,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		Price:          req.Price,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.quoteTTL),
	}

	if err := s.reservations.Put(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

// InitializeChargeRequest starts payment for a reservation.
type InitializeChargeRequest struct {
	ReservationID string
	Email         string
}

// InitializeCharge opens a hosted checkout for a still-valid reservation.
// The reservation ID travels in the charge metadata so the finalizer can
// recover it from webhook, callback, or poll alike.
func (s *BookingService) InitializeCharge(ctx context.Context, req InitializeChargeRequest) (*ChargeAuthorization, error) {
	res, err := s.reservations.Get(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}
	if res.Expired(time.Now()) {
		return nil, ErrReservationExpired
	}

	return s.gateway.InitializeCharge(ctx, req.Email, res.Price, map[string]string{
		"reservation_id": res.ID,
	})
}

// GetBooking retrieves a booking, serving repeat reads from cache.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetBooking(ctx, &redis.CachedBooking{
			ID:              booking.ID,
			ClientID:        booking.ClientID,
			DriverID:        booking.DriverID,
			Price:           booking.Price,
			PaymentState:    string(booking.PaymentState),
			TripState:       string(booking.TripState),
			DriverConfirmed: booking.DriverConfirmed,
			ClientConfirmed: booking.ClientConfirmed,
		})
	}

	return booking, nil
}

// Accept moves a paid booking from PENDING to ACCEPTED.
func (s *BookingService) Accept(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, domain.TripStatePending, domain.TripStateAccepted, ErrBookingNotPending)
}

// Start moves an accepted booking to ONGOING.
func (s *BookingService) Start(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, domain.TripStateAccepted, domain.TripStateOngoing, ErrBookingNotAccepted)
}

func (s *BookingService) transition(ctx context.Context, bookingID string, from, to domain.TripState, stateErr error) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	ok, err := s.bookingRepo.UpdateTripState(ctx, bookingID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish a missing booking from a wrong-state one.
		if _, err := s.bookingRepo.GetByID(ctx, bookingID); err != nil {
			return nil, err
		}
		return nil, stateErr
	}

	if s.cache != nil {
		_ = s.cache.InvalidateBooking(ctx, bookingID)
	}

	return s.bookingRepo.GetByID(ctx, bookingID)
}

// Cancel cancels a booking whose trip has not started and refunds the
// payment through the gateway.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.TripState != domain.TripStatePending && booking.TripState != domain.TripStateAccepted {
		return nil, ErrBookingNotCancellable
	}

	ok, err := s.bookingRepo.UpdateTripState(ctx, bookingID, booking.TripState, domain.TripStateCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with acceptance, start, or another cancel.
		return nil, ErrBookingNotCancellable
	}

	if s.cache != nil {
		_ = s.cache.InvalidateBooking(ctx, bookingID)
	}

	if booking.PaymentState == domain.PaymentStatePaid {
		tx, err := s.txRepo.GetByBookingID(ctx, bookingID)
		if err != nil {
			log.Printf("RECONCILE: cancelled booking %s has no readable transaction, refund not issued: %v", bookingID, err)
		} else if err := s.gateway.Refund(ctx, tx.Reference, tx.Amount); err != nil {
			log.Printf("RECONCILE: refund for cancelled booking %s (reference %s) failed: %v", bookingID, tx.Reference, err)
		} else if err := s.bookingRepo.UpdatePaymentState(ctx, bookingID, domain.PaymentStateRefunded); err != nil {
			log.Printf("RECONCILE: refund issued for booking %s but payment state not updated: %v", bookingID, err)
		} else {
			booking.PaymentState = domain.PaymentStateRefunded
		}
	}

	booking.TripState = domain.TripStateCancelled

	if s.notifier != nil {
		_ = s.notifier.NotifyBookingCancelled(ctx, booking)
	}

	return booking, nil
}
