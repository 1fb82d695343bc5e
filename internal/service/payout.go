package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
)

// PayoutService batches a driver's settled, not-yet-withdrawn transactions
// into a single gateway transfer. Per-trip settlement does not depend on it;
// it serves driver-initiated withdrawals.
type PayoutService struct {
	payoutRepo repository.PayoutRepository
	txRepo     repository.TransactionRepository
	recipients RecipientRegistry
	gateway    Gateway
	notifier   *NotificationService
}

// NewPayoutService creates a new PayoutService.
func NewPayoutService(
	payoutRepo repository.PayoutRepository,
	txRepo repository.TransactionRepository,
	recipients RecipientRegistry,
	gateway Gateway,
	notifier *NotificationService,
) *PayoutService {
	return &PayoutService{
		payoutRepo: payoutRepo,
		txRepo:     txRepo,
		recipients: recipients,
		gateway:    gateway,
		notifier:   notifier,
	}
}

// Withdraw gathers the driver's settled unpaid transactions, stamps them with
// a new payout, and issues one transfer covering the stamped set. Stamping is
// a conditional update on payout_id, so two concurrent withdrawals split the
// transactions between them instead of paying any row twice.
func (s *PayoutService) Withdraw(ctx context.Context, driverID string) (*domain.Payout, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	recipient, err := s.recipients.RecipientCode(ctx, driverID)
	if err != nil {
		return nil, err
	}

	eligible, err := s.txRepo.ListSettledUnpaid(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, ErrNothingToWithdraw
	}

	payoutID := uuid.New().String()

	ids := make([]string, 0, len(eligible))
	shares := make(map[string]int64, len(eligible))
	for _, tx := range eligible {
		ids = append(ids, tx.ID)
		shares[tx.ID] = tx.DriverShare
	}

	stamped, err := s.txRepo.AssignPayout(ctx, payoutID, ids)
	if err != nil {
		return nil, err
	}
	if len(stamped) == 0 {
		// A concurrent withdrawal took everything we saw.
		return nil, ErrNothingToWithdraw
	}

	var amount int64
	for _, id := range stamped {
		amount += shares[id]
	}

	transferRef := fmt.Sprintf("po-%s", payoutID)

	payout := &domain.Payout{
		ID:                payoutID,
		DriverID:          driverID,
		Amount:            amount,
		TransferReference: transferRef,
		CreatedAt:         time.Now(),
	}

	if err := s.payoutRepo.Create(ctx, payout); err != nil {
		return nil, err
	}

	if _, err := s.gateway.InitiateTransfer(ctx, recipient, amount, transferRef, "driver withdrawal"); err != nil {
		// The stamped rows stay attached to this payout; ops retries the
		// transfer with the same reference, which the gateway deduplicates.
		log.Printf("RECONCILE: payout %s recorded but transfer failed, retry transfer %s: %v", payoutID, transferRef, err)
		return payout, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyPayoutSent(ctx, payout)
	}

	return payout, nil
}

// ListPayouts returns a driver's payout history.
func (s *PayoutService) ListPayouts(ctx context.Context, driverID string) ([]*domain.Payout, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.payoutRepo.ListByDriverID(ctx, driverID)
}
