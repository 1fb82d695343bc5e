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

// PaymentFinalizer converts a verified gateway payment plus a still-valid
// reservation into a durable Booking and Transaction pair, exactly once per
// gateway reference. Webhook delivery, the redirect callback, and manual
// verification polls all funnel into Finalize; none carries its own logic.
type PaymentFinalizer struct {
	bookingRepo  repository.BookingRepository
	txRepo       repository.TransactionRepository
	reservations redis.ReservationStoreInterface
	notifier     *NotificationService
}

// NewPaymentFinalizer creates a new PaymentFinalizer.
func NewPaymentFinalizer(
	bookingRepo repository.BookingRepository,
	txRepo repository.TransactionRepository,
	reservations redis.ReservationStoreInterface,
	notifier *NotificationService,
) *PaymentFinalizer {
	return &PaymentFinalizer{
		bookingRepo:  bookingRepo,
		txRepo:       txRepo,
		reservations: reservations,
		notifier:     notifier,
	}
}

// FinalizeResult is the outcome of a finalization attempt.
type FinalizeResult struct {
	BookingID        string
	AlreadyProcessed bool
}

// Finalize turns a successful gateway payment into a Booking and Transaction.
// Safe to invoke any number of times, from any number of concurrent callers,
// for the same reference: only one Booking and one Transaction ever exist per
// reference, and every call reports the same booking ID.
func (s *PaymentFinalizer) Finalize(ctx context.Context, reference, reservationID string, gross int64) (*FinalizeResult, error) {
	if reference == "" {
		return nil, ErrInvalidReference
	}

	// The reference check comes before any other read. A redelivered webhook
	// racing a callback almost always resolves right here.
	existing, err := s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &FinalizeResult{BookingID: existing.BookingID, AlreadyProcessed: true}, nil
	}

	res, err := s.reservations.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		// Either the quote never existed or a concurrent finalizer consumed
		// it. Re-check the ledger before reporting it missing.
		existing, err = s.txRepo.GetByReference(ctx, reference)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &FinalizeResult{BookingID: existing.BookingID, AlreadyProcessed: true}, nil
		}
		return nil, ErrReservationNotFound
	}

	now := time.Now()
	if res.Expired(now) {
		if err := s.reservations.Delete(ctx, res.ID); err != nil {
			log.Printf("finalizer: failed to delete expired reservation %s: %v", res.ID, err)
		}
		return nil, ErrReservationExpired
	}

	// Second reference check narrows the window between the first check and
	// the inserts below. The unique index on the reference remains the final
	// arbiter either way.
	existing, err = s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &FinalizeResult{BookingID: existing.BookingID, AlreadyProcessed: true}, nil
	}

	booking := &domain.Booking{
		ID:             uuid.New().String(),
		ClientID:       res.ClientID,
		DriverID:       res.DriverID,
		PickupAddress:  res.PickupAddress,
		DropoffAddress: res.DropoffAddress,
		Price:          res.Price,
		PaymentState:   domain.PaymentStatePaid,
		TripState:      domain.TripStatePending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		Reference: reference,
		Amount:    gross,
		Settled:   false,
		CreatedAt: now,
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		if err == repository.ErrDuplicateReference {
			// A concurrent call won the race between the re-check and this
			// insert. Undo our booking and hand back the winner's.
			if delErr := s.bookingRepo.Delete(ctx, booking.ID); delErr != nil {
				log.Printf("finalizer: failed to delete orphaned booking %s: %v", booking.ID, delErr)
			}

			winner, getErr := s.txRepo.GetByReference(ctx, reference)
			if getErr != nil {
				return nil, getErr
			}
			if winner == nil {
				return nil, err
			}
			return &FinalizeResult{BookingID: winner.BookingID, AlreadyProcessed: true}, nil
		}
		return nil, err
	}

	// Deletion failure is harmless: the TTL will reap the quote and the
	// reference check above blocks any reuse.
	if err := s.reservations.Delete(ctx, res.ID); err != nil {
		log.Printf("finalizer: failed to delete reservation %s: %v", res.ID, err)
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyBookingPaid(ctx, booking)
	}

	return &FinalizeResult{BookingID: booking.ID, AlreadyProcessed: false}, nil
}
