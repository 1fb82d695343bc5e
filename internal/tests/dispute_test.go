package tests

import (
	"context"
	"sync/atomic"
	"testing"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
	"drivelink/internal/service"
)

type disputeFixture struct {
	completionFixture
	disputeRepo *MockDisputeRepository
	svcDispute  *service.DisputeService
}

func newDisputeFixture() *disputeFixture {
	base := newCompletionFixture()
	disputeRepo := NewMockDisputeRepository()
	svcDispute := service.NewDisputeService(disputeRepo, base.bookings, base.svc)
	return &disputeFixture{
		completionFixture: *base,
		disputeRepo:       disputeRepo,
		svcDispute:        svcDispute,
	}
}

func TestOpenDispute(t *testing.T) {
	t.Parallel()

	f := newDisputeFixture()
	f.seedOngoingBooking("booking-1")

	dispute, err := f.svcDispute.Open(context.Background(), service.OpenRequest{
		BookingID: "booking-1",
		RaisedBy:  "client-1",
		Reason:    "driver took a different route",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dispute.Status != domain.DisputeStatusOpen {
		t.Errorf("expected OPEN, got %s", dispute.Status)
	}

	open, err := f.disputeRepo.HasOpenDispute(context.Background(), "booking-1")
	if err != nil {
		t.Fatalf("HasOpenDispute failed: %v", err)
	}
	if !open {
		t.Error("booking should have an open dispute")
	}
}

func TestOpenDisputeMissingBooking(t *testing.T) {
	t.Parallel()

	f := newDisputeFixture()

	_, err := f.svcDispute.Open(context.Background(), service.OpenRequest{
		BookingID: "booking-missing",
		RaisedBy:  "client-1",
	})
	if err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveDisputeCompletesConfirmedBooking(t *testing.T) {
	t.Parallel()

	f := newDisputeFixture()
	f.seedOngoingBooking("booking-1")

	// Dispute opens in both the repository and the registry backing the
	// completion gate.
	dispute, err := f.svcDispute.Open(context.Background(), service.OpenRequest{
		BookingID: "booking-1",
		RaisedBy:  "client-1",
		Reason:    "fare looks wrong",
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	f.disputes.OpenDispute("booking-1")

	if _, err := f.svc.ConfirmTrip(context.Background(), "booking-1", repository.PartyDriver); err != nil {
		t.Fatalf("driver confirmation failed: %v", err)
	}
	if _, err := f.svc.ConfirmTrip(context.Background(), "booking-1", repository.PartyClient); err != nil {
		t.Fatalf("client confirmation failed: %v", err)
	}
	if got := atomic.LoadInt32(&f.gateway.TransferCallCount); got != 0 {
		t.Fatalf("no transfer while disputed, got %d", got)
	}

	f.disputes.ResolveDispute("booking-1")
	resolved, err := f.svcDispute.Resolve(context.Background(), dispute.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Status != domain.DisputeStatusResolved {
		t.Errorf("expected RESOLVED, got %s", resolved.Status)
	}

	booking := f.bookings.GetBooking("booking-1")
	if booking.TripState != domain.TripStateCompleted {
		t.Errorf("resolution should complete the fully confirmed booking, got %s", booking.TripState)
	}
	if got := atomic.LoadInt32(&f.gateway.TransferCallCount); got != 1 {
		t.Errorf("expected exactly 1 transfer after resolution, got %d", got)
	}
}

func TestResolveMissingDispute(t *testing.T) {
	t.Parallel()

	f := newDisputeFixture()

	_, err := f.svcDispute.Resolve(context.Background(), "dispute-missing")
	if err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
