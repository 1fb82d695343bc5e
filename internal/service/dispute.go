package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
)

// DisputeService opens and resolves disputes. An open dispute blocks the
// booking's completion and settlement until it resolves.
type DisputeService struct {
	disputeRepo repository.DisputeRepository
	bookingRepo repository.BookingRepository
	completion  *CompletionService
}

// NewDisputeService creates a new DisputeService.
func NewDisputeService(
	disputeRepo repository.DisputeRepository,
	bookingRepo repository.BookingRepository,
	completion *CompletionService,
) *DisputeService {
	return &DisputeService{
		disputeRepo: disputeRepo,
		bookingRepo: bookingRepo,
		completion:  completion,
	}
}

// OpenRequest contains the parameters for opening a dispute.
type OpenRequest struct {
	BookingID string
	RaisedBy  string
	Reason    string
}

// Open raises a dispute against a booking.
func (s *DisputeService) Open(ctx context.Context, req OpenRequest) (*domain.Dispute, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}

	// The booking must exist; a dispute against nothing gates nothing.
	if _, err := s.bookingRepo.GetByID(ctx, req.BookingID); err != nil {
		return nil, err
	}

	dispute := &domain.Dispute{
		ID:        uuid.New().String(),
		BookingID: req.BookingID,
		RaisedBy:  req.RaisedBy,
		Reason:    req.Reason,
		Status:    domain.DisputeStatusOpen,
		CreatedAt: time.Now(),
	}

	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, err
	}

	return dispute, nil
}

// Resolve closes a dispute and re-runs the completion check for its booking,
// so a booking that was fully confirmed behind the gate completes and settles
// without waiting for another confirmation call.
func (s *DisputeService) Resolve(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	if disputeID == "" {
		return nil, ErrInvalidDisputeID
	}

	dispute, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.disputeRepo.Resolve(ctx, disputeID); err != nil {
		return nil, err
	}
	dispute.Status = domain.DisputeStatusResolved
	dispute.ResolvedAt = time.Now()

	booking, err := s.bookingRepo.GetByID(ctx, dispute.BookingID)
	if err != nil {
		return dispute, nil
	}

	if booking.DriverConfirmed && booking.ClientConfirmed {
		if _, err := s.completion.TryComplete(ctx, booking); err != nil {
			log.Printf("dispute: completion retry for booking %s after resolving %s failed: %v", booking.ID, disputeID, err)
		}
	}

	return dispute, nil
}
