package service

import (
	"context"
	"fmt"
	"log"
	"math"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
)

// RecipientRegistry resolves a driver to their verified payout recipient at
// the gateway.
type RecipientRegistry interface {
	RecipientCode(ctx context.Context, driverID string) (string, error)
}

// DriverRecipientRegistry is a RecipientRegistry backed by the driver store.
type DriverRecipientRegistry struct {
	drivers repository.DriverRepository
}

// NewDriverRecipientRegistry creates a new DriverRecipientRegistry.
func NewDriverRecipientRegistry(drivers repository.DriverRepository) *DriverRecipientRegistry {
	return &DriverRecipientRegistry{drivers: drivers}
}

// RecipientCode returns the driver's registered payout recipient.
func (r *DriverRecipientRegistry) RecipientCode(ctx context.Context, driverID string) (string, error) {
	driver, err := r.drivers.GetByID(ctx, driverID)
	if err != nil {
		return "", err
	}
	if driver.RecipientCode == "" {
		return "", ErrNoRecipient
	}
	return driver.RecipientCode, nil
}

// CommissionSource supplies the platform's current commission percentage.
// It is consulted at settlement time, never cached, so a rate change applies
// to every not-yet-settled transaction without a restart.
type CommissionSource interface {
	CommissionPercent(ctx context.Context) (float64, error)
}

// SettlementService splits a booking's escrowed funds and transfers the
// driver's share. The settled flag on the transaction is the only mutual
// exclusion: whoever flips it false to true owns the one transfer attempt.
type SettlementService struct {
	bookingRepo repository.BookingRepository
	txRepo      repository.TransactionRepository
	driverRepo  repository.DriverRepository
	recipients  RecipientRegistry
	commission  CommissionSource
	gateway     Gateway
	notifier    *NotificationService
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	bookingRepo repository.BookingRepository,
	txRepo repository.TransactionRepository,
	driverRepo repository.DriverRepository,
	recipients RecipientRegistry,
	commission CommissionSource,
	gateway Gateway,
	notifier *NotificationService,
) *SettlementService {
	return &SettlementService{
		bookingRepo: bookingRepo,
		txRepo:      txRepo,
		driverRepo:  driverRepo,
		recipients:  recipients,
		commission:  commission,
		gateway:     gateway,
		notifier:    notifier,
	}
}

// Settle claims the booking's transaction, computes the commission split, and
// transfers the driver's share. Idempotent: a booking whose transaction is
// already settled (or claimed by a concurrent caller) returns success without
// touching the gateway. Retryable: a failed transfer reverts the claim so a
// later call can try again.
func (s *SettlementService) Settle(ctx context.Context, bookingID string) error {
	if bookingID == "" {
		return ErrInvalidBookingID
	}

	tx, err := s.txRepo.Claim(ctx, bookingID)
	if err != nil {
		return err
	}
	if tx == nil {
		// Another caller owns or already finished this settlement.
		return nil
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return s.abortClaim(ctx, tx, err)
	}

	// Only escrowed funds can settle. A refunded or failed payment has
	// nothing held for the driver; paying out anyway would disburse twice.
	if booking.PaymentState != domain.PaymentStatePaid {
		return s.abortClaim(ctx, tx, ErrBookingNotSettleable)
	}

	pct, err := s.commission.CommissionPercent(ctx)
	if err != nil {
		return s.abortClaim(ctx, tx, err)
	}

	recipient, err := s.recipients.RecipientCode(ctx, booking.DriverID)
	if err != nil {
		return s.abortClaim(ctx, tx, err)
	}

	platformShare := int64(math.Round(float64(tx.Amount) * pct / 100))
	driverShare := tx.Amount - platformShare

	// Derived from the row identities, so a retried transfer presents the
	// same reference and the gateway deduplicates it.
	transferRef := fmt.Sprintf("stl-%s-%s", bookingID, tx.ID)

	if _, err := s.gateway.InitiateTransfer(ctx, recipient, driverShare, transferRef, "trip settlement"); err != nil {
		return s.abortClaim(ctx, tx, fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}

	// The money has moved. Everything below is bookkeeping: failures are
	// reconciliation warnings, never settlement failures.
	if err := s.txRepo.RecordSettlement(ctx, tx.ID, driverShare, platformShare, transferRef); err != nil {
		log.Printf("RECONCILE: settlement recorded at gateway but not in ledger: transaction=%s transfer=%s: %v", tx.ID, transferRef, err)
	}

	completed, err := s.bookingRepo.CompleteIfConfirmedAndUndisputed(ctx, bookingID)
	if err != nil {
		log.Printf("RECONCILE: settled booking %s could not be marked completed: %v", bookingID, err)
	} else if completed {
		// Normally completion happens before settlement; this path covers a
		// manual ops settle racing the confirmation handlers.
		if err := s.driverRepo.IncrementTripsCompleted(ctx, booking.DriverID); err != nil {
			log.Printf("settlement: failed to increment trip counter for driver %s: %v", booking.DriverID, err)
		}
	}

	if s.notifier != nil {
		_ = s.notifier.NotifySettlementCompleted(ctx, booking, driverShare)
	}

	return nil
}

// abortClaim releases the settlement claim after a pre-transfer failure. A
// claim that cannot be released strands a transaction as settled with no
// money moved, which only manual reconciliation can fix, so that case is
// logged at critical severity.
func (s *SettlementService) abortClaim(ctx context.Context, tx *domain.Transaction, cause error) error {
	if err := s.txRepo.ReleaseClaim(ctx, tx.ID); err != nil {
		log.Printf("CRITICAL: failed to revert settlement claim: transaction=%s booking=%s still marked settled with no transfer: %v", tx.ID, tx.BookingID, err)
	}
	return cause
}
