package tests

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"drivelink/internal/domain"
	"drivelink/internal/service"
)

type payoutFixture struct {
	payouts *MockPayoutRepository
	txs     *MockTransactionRepository
	drivers *MockDriverRepository
	gateway *MockGateway
	svc     *service.PayoutService
}

func newPayoutFixture() *payoutFixture {
	payouts := NewMockPayoutRepository()
	txs := NewMockTransactionRepository()
	drivers := NewMockDriverRepository()
	gateway := NewMockGateway()

	svc := service.NewPayoutService(
		payouts,
		txs,
		service.NewDriverRecipientRegistry(drivers),
		gateway,
		service.NewNotificationService(),
	)

	return &payoutFixture{payouts: payouts, txs: txs, drivers: drivers, gateway: gateway, svc: svc}
}

func (f *payoutFixture) seedSettledTransactions(driverID string, shares ...int64) {
	f.drivers.AddDriver(&domain.Driver{
		ID:            driverID,
		Name:          "Tunde",
		RecipientCode: "RCP_" + driverID,
	})

	index := make(map[string]string)
	for i, share := range shares {
		id := driverID + "-tx-" + string(rune('a'+i))
		bookingID := driverID + "-booking-" + string(rune('a'+i))
		f.txs.AddTransaction(&domain.Transaction{
			ID:          id,
			BookingID:   bookingID,
			Reference:   "ref-" + id,
			Amount:      share + share/4,
			DriverShare: share,
			Settled:     true,
			CreatedAt:   time.Now(),
		})
		index[bookingID] = driverID
	}
	f.txs.SetDriverIndex(index)
}

func TestWithdrawBatchesSettledTransactions(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture()
	f.seedSettledTransactions("driver-1", 4000, 2400, 1600)

	payout, err := f.svc.Withdraw(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if payout.Amount != 8000 {
		t.Errorf("expected payout amount 8000, got %d", payout.Amount)
	}
	if !strings.HasPrefix(payout.TransferReference, "po-") {
		t.Errorf("unexpected transfer reference %s", payout.TransferReference)
	}

	if got := atomic.LoadInt32(&f.gateway.TransferCallCount); got != 1 {
		t.Fatalf("expected exactly 1 transfer, got %d", got)
	}
	if f.gateway.LastTransferAmount != 8000 {
		t.Errorf("expected transfer of 8000, got %d", f.gateway.LastTransferAmount)
	}
	if f.gateway.LastTransferRecipient != "RCP_driver-1" {
		t.Errorf("expected transfer to RCP_driver-1, got %s", f.gateway.LastTransferRecipient)
	}
	if f.payouts.CountPayouts() != 1 {
		t.Errorf("expected 1 stored payout, got %d", f.payouts.CountPayouts())
	}
}

func TestWithdrawTwiceFindsNothingSecondTime(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture()
	f.seedSettledTransactions("driver-1", 4000)

	if _, err := f.svc.Withdraw(context.Background(), "driver-1"); err != nil {
		t.Fatalf("first withdrawal failed: %v", err)
	}

	_, err := f.svc.Withdraw(context.Background(), "driver-1")
	if err != service.ErrNothingToWithdraw {
		t.Fatalf("expected ErrNothingToWithdraw, got %v", err)
	}
	if got := atomic.LoadInt32(&f.gateway.TransferCallCount); got != 1 {
		t.Errorf("expected exactly 1 transfer, got %d", got)
	}
}

func TestWithdrawNoSettledTransactions(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture()
	f.drivers.AddDriver(&domain.Driver{ID: "driver-1", RecipientCode: "RCP_driver-1"})

	_, err := f.svc.Withdraw(context.Background(), "driver-1")
	if err != service.ErrNothingToWithdraw {
		t.Fatalf("expected ErrNothingToWithdraw, got %v", err)
	}
}

func TestWithdrawMissingRecipient(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture()
	f.seedSettledTransactions("driver-1", 4000)
	f.drivers.GetDriver("driver-1").RecipientCode = ""

	_, err := f.svc.Withdraw(context.Background(), "driver-1")
	if !errors.Is(err, service.ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if got := atomic.LoadInt32(&f.gateway.TransferCallCount); got != 0 {
		t.Errorf("no transfer should be attempted, got %d", got)
	}
}

func TestWithdrawTransferFailureKeepsPayoutForRetry(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture()
	f.seedSettledTransactions("driver-1", 4000)
	f.gateway.SetTransferError(errors.New("gateway timeout"))

	payout, err := f.svc.Withdraw(context.Background(), "driver-1")
	if !errors.Is(err, service.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if payout == nil {
		t.Fatal("payout record should be returned for reconciliation")
	}

	// The stamped transactions stay attached to the payout; they must not be
	// eligible for a second withdrawal.
	_, err = f.svc.Withdraw(context.Background(), "driver-1")
	if err != service.ErrNothingToWithdraw {
		t.Fatalf("expected ErrNothingToWithdraw after failed transfer, got %v", err)
	}
}

func TestWithdrawEmptyDriverID(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture()

	_, err := f.svc.Withdraw(context.Background(), "")
	if err != service.ErrInvalidDriverID {
		t.Fatalf("expected ErrInvalidDriverID, got %v", err)
	}
}

func TestListPayouts(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture()
	f.seedSettledTransactions("driver-1", 4000)

	if _, err := f.svc.Withdraw(context.Background(), "driver-1"); err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}

	payouts, err := f.svc.ListPayouts(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(payouts) != 1 {
		t.Fatalf("expected 1 payout, got %d", len(payouts))
	}
	if payouts[0].Amount != 4000 {
		t.Errorf("expected amount 4000, got %d", payouts[0].Amount)
	}
}
