package service

import (
	"context"
	"log"
	"time"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
)

// DisputeRegistry answers whether a booking is currently contested.
type DisputeRegistry interface {
	HasOpenDispute(ctx context.Context, bookingID string) (bool, error)
}

// CompletionService tracks each party's independent confirmation that the
// trip happened and advances the booking to COMPLETED once both agree. The
// two confirmations are separate boolean writes; the decision to complete is
// a re-read followed by a single conditional update, so concurrent
// confirmations cannot lose each other and the completion transition fires
// exactly once.
type CompletionService struct {
	bookingRepo repository.BookingRepository
	driverRepo  repository.DriverRepository
	disputes    DisputeRegistry
	settlement  *SettlementService
	notifier    *NotificationService
}

// NewCompletionService creates a new CompletionService.
func NewCompletionService(
	bookingRepo repository.BookingRepository,
	driverRepo repository.DriverRepository,
	disputes DisputeRegistry,
	settlement *SettlementService,
	notifier *NotificationService,
) *CompletionService {
	return &CompletionService{
		bookingRepo: bookingRepo,
		driverRepo:  driverRepo,
		disputes:    disputes,
		settlement:  settlement,
		notifier:    notifier,
	}
}

// ConfirmResult is the outcome of recording one party's confirmation.
type ConfirmResult struct {
	Booking *domain.Booking

	// Completed is true when this call performed the transition to COMPLETED.
	Completed bool

	// DisputeDeferred is true when both parties have confirmed but an open
	// dispute is holding the completion (and settlement) back.
	DisputeDeferred bool
}

// ConfirmTrip records one party's confirmation of trip completion.
// Re-confirming is a no-op success. Each caller can only set its own side;
// the handlers route client and driver confirmations to their own party.
func (s *CompletionService) ConfirmTrip(ctx context.Context, bookingID string, party repository.ConfirmingParty) (*ConfirmResult, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.TripState == domain.TripStateCancelled || booking.PaymentState != domain.PaymentStatePaid {
		return nil, ErrBookingNotConfirmable
	}

	if err := s.bookingRepo.SetConfirmed(ctx, bookingID, party, time.Now()); err != nil {
		return nil, err
	}

	// Re-read both flags. Whichever concurrent confirmation observes both
	// set triggers completion; the conditional update below keeps the
	// transition single-shot even if both observe it.
	booking, err = s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	result := &ConfirmResult{Booking: booking}

	if !booking.DriverConfirmed || !booking.ClientConfirmed {
		return result, nil
	}

	open, err := s.disputes.HasOpenDispute(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if open {
		// The confirmation stays recorded; completion waits for the dispute
		// to resolve. The store-side gate would refuse the transition too.
		result.DisputeDeferred = true
		return result, nil
	}

	completed, err := s.TryComplete(ctx, booking)
	if err != nil {
		return nil, err
	}
	result.Completed = completed
	if completed {
		booking.TripState = domain.TripStateCompleted
	}

	return result, nil
}

// TryComplete attempts the single-shot transition to COMPLETED and, when it
// wins, bumps the driver's trip counter and kicks off settlement. Returns
// true only for the call that performed the transition.
func (s *CompletionService) TryComplete(ctx context.Context, booking *domain.Booking) (bool, error) {
	completed, err := s.bookingRepo.CompleteIfConfirmedAndUndisputed(ctx, booking.ID)
	if err != nil {
		return false, err
	}
	if !completed {
		return false, nil
	}

	if err := s.driverRepo.IncrementTripsCompleted(ctx, booking.DriverID); err != nil {
		log.Printf("completion: failed to increment trip counter for driver %s: %v", booking.DriverID, err)
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyTripCompleted(ctx, booking)
	}

	// Settlement failures do not undo the completion; the settle claim was
	// reverted and the operation can be retried by ops or the next caller.
	if err := s.settlement.Settle(ctx, booking.ID); err != nil {
		log.Printf("completion: settlement for booking %s failed: %v", booking.ID, err)
	}

	return true, nil
}
