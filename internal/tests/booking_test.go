package tests

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"drivelink/internal/domain"
	"drivelink/internal/service"
)

type bookingFixture struct {
	bookings     *MockBookingRepository
	txs          *MockTransactionRepository
	reservations *MockReservationStore
	gateway      *MockGateway
	svc          *service.BookingService
}

func newBookingFixture() *bookingFixture {
	bookings := NewMockBookingRepository()
	txs := NewMockTransactionRepository()
	reservations := NewMockReservationStore()
	gateway := NewMockGateway()

	svc := service.NewBookingService(
		bookings,
		txs,
		reservations,
		nil, // cache is optional
		gateway,
		service.NewNotificationService(),
		time.Hour,
	)

	return &bookingFixture{bookings: bookings, txs: txs, reservations: reservations, gateway: gateway, svc: svc}
}

func (f *bookingFixture) seedPaidPendingBooking(bookingID string) {
	now := time.Now()
	f.bookings.AddBooking(&domain.Booking{
		ID:           bookingID,
		ClientID:     "client-1",
		DriverID:     "driver-1",
		Price:        5000,
		PaymentState: domain.PaymentStatePaid,
		TripState:    domain.TripStatePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	f.txs.AddTransaction(&domain.Transaction{
		ID:        "tx-" + bookingID,
		BookingID: bookingID,
		Reference: "ref-" + bookingID,
		Amount:    5000,
		CreatedAt: now,
	})
}

func TestCreateReservationStoresQuoteWithTTL(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()

	res, err := f.svc.CreateReservation(context.Background(), service.CreateReservationRequest{
		ClientID:       "client-1",
		DriverID:       "driver-1",
		PickupAddress:  "12 Marina Road",
		DropoffAddress: "4 Airport Way",
		Price:          5000,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.ID == "" {
		t.Error("reservation should get an id")
	}
	if !res.ExpiresAt.After(res.CreatedAt) {
		t.Error("reservation must expire after creation")
	}
	if !f.reservations.Has(res.ID) {
		t.Error("reservation should be stored")
	}
}

func TestCreateReservationValidation(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()

	_, err := f.svc.CreateReservation(context.Background(), service.CreateReservationRequest{
		DriverID: "driver-1",
		Price:    5000,
	})
	if err != service.ErrInvalidReservation {
		t.Fatalf("expected ErrInvalidReservation for missing client, got %v", err)
	}

	_, err = f.svc.CreateReservation(context.Background(), service.CreateReservationRequest{
		ClientID: "client-1",
		DriverID: "driver-1",
		Price:    0,
	})
	if err != service.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount for zero price, got %v", err)
	}
}

func TestInitializeChargeCarriesReservationID(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()

	res, err := f.svc.CreateReservation(context.Background(), service.CreateReservationRequest{
		ClientID: "client-1",
		DriverID: "driver-1",
		Price:    5000,
	})
	if err != nil {
		t.Fatalf("reservation failed: %v", err)
	}

	auth, err := f.svc.InitializeCharge(context.Background(), service.InitializeChargeRequest{
		ReservationID: res.ID,
		Email:         "client@example.com",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if auth.Reference != "ref-"+res.ID {
		t.Errorf("charge reference should carry the reservation id, got %s", auth.Reference)
	}
}

func TestInitializeChargeExpiredReservation(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()

	res := validReservation("res-1")
	res.ExpiresAt = time.Now().Add(-time.Minute)
	if err := f.reservations.Put(context.Background(), res); err != nil {
		t.Fatalf("failed to store reservation: %v", err)
	}

	_, err := f.svc.InitializeCharge(context.Background(), service.InitializeChargeRequest{ReservationID: "res-1"})
	if err != service.ErrReservationExpired {
		t.Fatalf("expected ErrReservationExpired, got %v", err)
	}
}

func TestAcceptThenStart(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedPaidPendingBooking("booking-1")

	booking, err := f.svc.Accept(context.Background(), "booking-1")
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if booking.TripState != domain.TripStateAccepted {
		t.Errorf("expected ACCEPTED, got %s", booking.TripState)
	}

	booking, err = f.svc.Start(context.Background(), "booking-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if booking.TripState != domain.TripStateOngoing {
		t.Errorf("expected ONGOING, got %s", booking.TripState)
	}
}

func TestStartBeforeAcceptRejected(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedPaidPendingBooking("booking-1")

	_, err := f.svc.Start(context.Background(), "booking-1")
	if err != service.ErrBookingNotAccepted {
		t.Fatalf("expected ErrBookingNotAccepted, got %v", err)
	}
}

func TestAcceptTwiceRejected(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedPaidPendingBooking("booking-1")

	if _, err := f.svc.Accept(context.Background(), "booking-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	_, err := f.svc.Accept(context.Background(), "booking-1")
	if err != service.ErrBookingNotPending {
		t.Fatalf("expected ErrBookingNotPending, got %v", err)
	}
}

func TestCancelPendingBookingRefunds(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedPaidPendingBooking("booking-1")

	booking, err := f.svc.Cancel(context.Background(), "booking-1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if booking.TripState != domain.TripStateCancelled {
		t.Errorf("expected CANCELLED, got %s", booking.TripState)
	}
	if booking.PaymentState != domain.PaymentStateRefunded {
		t.Errorf("expected REFUNDED, got %s", booking.PaymentState)
	}
	if got := atomic.LoadInt32(&f.gateway.RefundCallCount); got != 1 {
		t.Errorf("expected exactly 1 refund, got %d", got)
	}

	stored := f.bookings.GetBooking("booking-1")
	if stored.PaymentState != domain.PaymentStateRefunded {
		t.Errorf("stored payment state should be REFUNDED, got %s", stored.PaymentState)
	}
}

func TestCancelOngoingBookingRejected(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedPaidPendingBooking("booking-1")
	f.bookings.GetBooking("booking-1").TripState = domain.TripStateOngoing

	_, err := f.svc.Cancel(context.Background(), "booking-1")
	if err != service.ErrBookingNotCancellable {
		t.Fatalf("expected ErrBookingNotCancellable, got %v", err)
	}
	if got := atomic.LoadInt32(&f.gateway.RefundCallCount); got != 0 {
		t.Errorf("no refund for a rejected cancel, got %d", got)
	}
}
