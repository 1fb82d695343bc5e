package repository

import (
	"context"
	"time"

	"drivelink/internal/domain"
)

// ConfirmingParty identifies which side of a booking is confirming completion.
type ConfirmingParty string

const (
	PartyClient ConfirmingParty = "CLIENT"
	PartyDriver ConfirmingParty = "DRIVER"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// Delete removes a booking. Used only to undo the booking half of a
	// finalization that lost the transaction-insert race.
	Delete(ctx context.Context, id string) error

	// UpdateTripState performs a conditional trip-state transition.
	// Returns false if the booking was not in the expected state.
	UpdateTripState(ctx context.Context, id string, from, to domain.TripState) (bool, error)

	// UpdatePaymentState sets the payment state of a booking.
	UpdatePaymentState(ctx context.Context, id string, state domain.PaymentState) error

	// SetConfirmed sets one party's confirmation flag and timestamp.
	// Re-confirming is a no-op success.
	SetConfirmed(ctx context.Context, id string, party ConfirmingParty, at time.Time) error

	// CompleteIfConfirmedAndUndisputed atomically transitions the booking to
	// COMPLETED when both confirmation flags are set, the booking is not
	// already completed or cancelled, and no open dispute references it.
	// The dispute check happens inside the same conditional update.
	// Returns true only for the call that performed the transition.
	CompleteIfConfirmedAndUndisputed(ctx context.Context, id string) (bool, error)

	// ListOverdueAwaitingClient returns bookings where the driver has
	// confirmed, the client has not, and the last update is older than cutoff.
	ListOverdueAwaitingClient(ctx context.Context, cutoff time.Time) ([]*domain.Booking, error)
}
