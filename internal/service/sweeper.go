package service

import (
	"context"
	"log"
	"time"

	"drivelink/internal/domain"
	"drivelink/internal/redis"
	"drivelink/internal/repository"
)

// Sweeper force-advances bookings stuck with a one-sided driver confirmation
// past the grace period. It reuses the normal confirmation path, confirming
// on behalf of the non-responsive client, so settlement and the dispute gate
// behave exactly as they would for a real confirmation.
type Sweeper struct {
	bookingRepo repository.BookingRepository
	disputes    DisputeRegistry
	completion  *CompletionService
	locks       redis.LockStoreInterface
	interval    time.Duration
	gracePeriod time.Duration
}

// NewSweeper creates a new Sweeper.
func NewSweeper(
	bookingRepo repository.BookingRepository,
	disputes DisputeRegistry,
	completion *CompletionService,
	locks redis.LockStoreInterface,
	interval, gracePeriod time.Duration,
) *Sweeper {
	return &Sweeper{
		bookingRepo: bookingRepo,
		disputes:    disputes,
		completion:  completion,
		locks:       locks,
		interval:    interval,
		gracePeriod: gracePeriod,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.locks != nil {
				// One instance per cycle is enough. Skipping here is purely
				// an efficiency measure; the completion path stays safe if
				// two instances ever sweep the same booking.
				acquired, err := s.locks.AcquireSweepLock(ctx, s.interval)
				if err != nil {
					log.Printf("sweeper: failed to acquire sweep lock: %v", err)
					continue
				}
				if !acquired {
					continue
				}
			}

			if err := s.Sweep(ctx); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			}
		}
	}
}

// Sweep runs one sweep cycle. Each overdue booking is processed
// independently; one booking's failure never aborts the rest.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.gracePeriod)

	overdue, err := s.bookingRepo.ListOverdueAwaitingClient(ctx, cutoff)
	if err != nil {
		return err
	}

	var swept, skipped, failed int
	for _, booking := range overdue {
		switch err := s.sweepOne(ctx, booking); {
		case err == errDisputeSkip:
			skipped++
		case err != nil:
			failed++
			log.Printf("sweeper: booking %s: %v", booking.ID, err)
		default:
			swept++
		}
	}

	if len(overdue) > 0 {
		log.Printf("sweeper: %d overdue bookings: %d completed, %d dispute-skipped, %d failed", len(overdue), swept, skipped, failed)
	}

	return nil
}

// errDisputeSkip marks a booking left alone because of an open dispute.
var errDisputeSkip = ErrDisputeOpen

func (s *Sweeper) sweepOne(ctx context.Context, booking *domain.Booking) error {
	open, err := s.disputes.HasOpenDispute(ctx, booking.ID)
	if err != nil {
		return err
	}
	if open {
		return errDisputeSkip
	}

	result, err := s.completion.ConfirmTrip(ctx, booking.ID, repository.PartyClient)
	if err != nil {
		return err
	}
	if result.DisputeDeferred {
		// A dispute opened between our check and the confirmation. The
		// confirmation is recorded; completion stays gated.
		return errDisputeSkip
	}

	return nil
}
