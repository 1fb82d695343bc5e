package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"drivelink/internal/domain"
	"drivelink/internal/service"
)

func newFinalizer(bookings *MockBookingRepository, txs *MockTransactionRepository, reservations *MockReservationStore) *service.PaymentFinalizer {
	return service.NewPaymentFinalizer(bookings, txs, reservations, service.NewNotificationService())
}

func validReservation(id string) *domain.Reservation {
	now := time.Now()
	return &domain.Reservation{
		ID:             id,
		ClientID:       "client-1",
		DriverID:       "driver-1",
		PickupAddress:  "12 Marina Road",
		DropoffAddress: "4 Airport Way",
		Price:          500000,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
	}
}

func TestFinalizeCreatesBookingAndTransaction(t *testing.T) {
	t.Parallel()

	bookings := NewMockBookingRepository()
	txs := NewMockTransactionRepository()
	reservations := NewMockReservationStore()
	finalizer := newFinalizer(bookings, txs, reservations)

	res := validReservation("res-1")
	if err := reservations.Put(context.Background(), res); err != nil {
		t.Fatalf("failed to store reservation: %v", err)
	}

	result, err := finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.AlreadyProcessed {
		t.Error("first finalization should not report AlreadyProcessed")
	}

	booking := bookings.GetBooking(result.BookingID)
	if booking == nil {
		t.Fatal("expected booking to be created")
	}
	if booking.PaymentState != domain.PaymentStatePaid {
		t.Errorf("expected payment state PAID, got %s", booking.PaymentState)
	}
	if booking.TripState != domain.TripStatePending {
		t.Errorf("expected trip state PENDING, got %s", booking.TripState)
	}
	if booking.Price != 500000 {
		t.Errorf("expected price 500000, got %d", booking.Price)
	}

	tx := txs.GetByReferenceDirect("ref-001")
	if tx == nil {
		t.Fatal("expected transaction to be created")
	}
	if tx.BookingID != result.BookingID {
		t.Errorf("transaction booking id %s does not match result %s", tx.BookingID, result.BookingID)
	}
	if tx.Settled {
		t.Error("new transaction should not be settled")
	}

	if reservations.Has("res-1") {
		t.Error("consumed reservation should be deleted")
	}
}

func TestFinalizeSecondCallIsIdempotent(t *testing.T) {
	t.Parallel()

	bookings := NewMockBookingRepository()
	txs := NewMockTransactionRepository()
	reservations := NewMockReservationStore()
	finalizer := newFinalizer(bookings, txs, reservations)

	if err := reservations.Put(context.Background(), validReservation("res-1")); err != nil {
		t.Fatalf("failed to store reservation: %v", err)
	}

	first, err := finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	second, err := finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !second.AlreadyProcessed {
		t.Error("second call should report AlreadyProcessed")
	}
	if second.BookingID != first.BookingID {
		t.Errorf("second call booking id %s differs from first %s", second.BookingID, first.BookingID)
	}

	if bookings.CountBookings() != 1 {
		t.Errorf("expected 1 booking, got %d", bookings.CountBookings())
	}
	if txs.CountTransactions() != 1 {
		t.Errorf("expected 1 transaction, got %d", txs.CountTransactions())
	}
}

func TestFinalizeConcurrentCallsSameReference(t *testing.T) {
	t.Parallel()

	bookings := NewMockBookingRepository()
	txs := NewMockTransactionRepository()
	reservations := NewMockReservationStore()
	finalizer := newFinalizer(bookings, txs, reservations)

	if err := reservations.Put(context.Background(), validReservation("res-1")); err != nil {
		t.Fatalf("failed to store reservation: %v", err)
	}

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*service.FinalizeResult, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
		}(i)
	}
	wg.Wait()

	var bookingID string
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if bookingID == "" {
			bookingID = results[i].BookingID
		} else if results[i].BookingID != bookingID {
			t.Errorf("caller %d got booking %s, expected %s", i, results[i].BookingID, bookingID)
		}
	}

	if bookings.CountBookings() != 1 {
		t.Errorf("expected exactly 1 booking, got %d", bookings.CountBookings())
	}
	if txs.CountTransactions() != 1 {
		t.Errorf("expected exactly 1 transaction, got %d", txs.CountTransactions())
	}
}

func TestFinalizeExpiredReservation(t *testing.T) {
	t.Parallel()

	bookings := NewMockBookingRepository()
	txs := NewMockTransactionRepository()
	reservations := NewMockReservationStore()
	finalizer := newFinalizer(bookings, txs, reservations)

	res := validReservation("res-1")
	res.ExpiresAt = time.Now().Add(-time.Minute)
	if err := reservations.Put(context.Background(), res); err != nil {
		t.Fatalf("failed to store reservation: %v", err)
	}

	_, err := finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
	if err != service.ErrReservationExpired {
		t.Fatalf("expected ErrReservationExpired, got %v", err)
	}

	if bookings.CountBookings() != 0 {
		t.Errorf("expected no bookings, got %d", bookings.CountBookings())
	}
	if txs.CountTransactions() != 0 {
		t.Errorf("expected no transactions, got %d", txs.CountTransactions())
	}
	if reservations.Has("res-1") {
		t.Error("expired reservation should be deleted")
	}
}

func TestFinalizeMissingReservation(t *testing.T) {
	t.Parallel()

	finalizer := newFinalizer(NewMockBookingRepository(), NewMockTransactionRepository(), NewMockReservationStore())

	_, err := finalizer.Finalize(context.Background(), "ref-001", "res-missing", 500000)
	if err != service.ErrReservationNotFound {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestFinalizeMissingReservationButReferenceRecorded(t *testing.T) {
	t.Parallel()

	// A concurrent finalizer consumed the reservation and recorded the
	// transaction between this caller's reference check and reservation read.
	bookings := NewMockBookingRepository()
	txs := NewMockTransactionRepository()
	reservations := NewMockReservationStore()
	finalizer := newFinalizer(bookings, txs, reservations)

	if err := reservations.Put(context.Background(), validReservation("res-1")); err != nil {
		t.Fatalf("failed to store reservation: %v", err)
	}
	first, err := finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
	if err != nil {
		t.Fatalf("setup finalization failed: %v", err)
	}

	// Reservation is gone now; the redelivery must still resolve to the
	// existing booking instead of reporting the reservation missing.
	result, err := finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !result.AlreadyProcessed || result.BookingID != first.BookingID {
		t.Errorf("expected AlreadyProcessed with booking %s, got %+v", first.BookingID, result)
	}
}

func TestFinalizeDuplicateInsertRace(t *testing.T) {
	t.Parallel()

	// The hook interleaves a competing insert after this caller's last
	// reference re-check, forcing the unique constraint to fire. The loser
	// must delete its orphaned booking and return the winner's booking id.
	bookings := NewMockBookingRepository()
	txs := NewMockTransactionRepository()
	reservations := NewMockReservationStore()
	finalizer := newFinalizer(bookings, txs, reservations)

	if err := reservations.Put(context.Background(), validReservation("res-1")); err != nil {
		t.Fatalf("failed to store reservation: %v", err)
	}

	winner := &domain.Transaction{
		ID:        "tx-winner",
		BookingID: "booking-winner",
		Reference: "ref-001",
		Amount:    500000,
		CreatedAt: time.Now(),
	}
	var once sync.Once
	txs.BeforeCreateHook = func() {
		once.Do(func() {
			txs.AddTransaction(winner)
		})
	}

	result, err := finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !result.AlreadyProcessed {
		t.Error("loser of the insert race should report AlreadyProcessed")
	}
	if result.BookingID != "booking-winner" {
		t.Errorf("expected winner's booking id, got %s", result.BookingID)
	}

	if bookings.CountBookings() != 0 {
		t.Errorf("orphaned booking should be deleted, found %d bookings", bookings.CountBookings())
	}
	if txs.CountTransactions() != 1 {
		t.Errorf("expected only the winner's transaction, got %d", txs.CountTransactions())
	}
}

func TestFinalizeToleratesReservationDeleteFailure(t *testing.T) {
	t.Parallel()

	// The TTL reaps the quote and the reference check blocks reuse, so a
	// failed delete must not fail the finalization.
	bookings := NewMockBookingRepository()
	txs := NewMockTransactionRepository()
	reservations := NewMockReservationStore()
	reservations.DeleteError = errors.New("connection reset")
	finalizer := newFinalizer(bookings, txs, reservations)

	if err := reservations.Put(context.Background(), validReservation("res-1")); err != nil {
		t.Fatalf("failed to store reservation: %v", err)
	}

	result, err := finalizer.Finalize(context.Background(), "ref-001", "res-1", 500000)
	if err != nil {
		t.Fatalf("expected success despite delete failure, got %v", err)
	}
	if result.AlreadyProcessed {
		t.Error("finalization should report a fresh booking")
	}
	if bookings.CountBookings() != 1 || txs.CountTransactions() != 1 {
		t.Errorf("expected 1 booking and 1 transaction, got %d/%d", bookings.CountBookings(), txs.CountTransactions())
	}
}

func TestFinalizeEmptyReference(t *testing.T) {
	t.Parallel()

	finalizer := newFinalizer(NewMockBookingRepository(), NewMockTransactionRepository(), NewMockReservationStore())

	_, err := finalizer.Finalize(context.Background(), "", "res-1", 500000)
	if err != service.ErrInvalidReference {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}
