package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	id, client_id, driver_id, pickup_addr, dropoff_addr, price,
	payment_state, trip_state,
	driver_confirmed, driver_confirmed_at, client_confirmed, client_confirmed_at,
	created_at, updated_at
`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, client_id, driver_id, pickup_addr, dropoff_addr, price,
			payment_state, trip_state, driver_confirmed, client_confirmed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, false, $9, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.ClientID,
		booking.DriverID,
		booking.PickupAddress,
		booking.DropoffAddress,
		booking.Price,
		booking.PaymentState,
		booking.TripState,
		booking.CreatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return booking, nil
}

// Delete removes a booking.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	return err
}

// UpdateTripState performs a conditional trip-state transition.
func (r *BookingRepository) UpdateTripState(ctx context.Context, id string, from, to domain.TripState) (bool, error) {
	query := `
		UPDATE bookings SET trip_state = $1, updated_at = now()
		WHERE id = $2 AND trip_state = $3
	`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// UpdatePaymentState sets the payment state of a booking.
func (r *BookingRepository) UpdatePaymentState(ctx context.Context, id string, state domain.PaymentState) error {
	query := `UPDATE bookings SET payment_state = $1, updated_at = now() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, state, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetConfirmed sets one party's confirmation flag and timestamp. The flag is
// only written on the false -> true edge so re-confirming keeps the original
// timestamp.
func (r *BookingRepository) SetConfirmed(ctx context.Context, id string, party repository.ConfirmingParty, at time.Time) error {
	var query string
	switch party {
	case repository.PartyClient:
		query = `
			UPDATE bookings
			SET client_confirmed = true, client_confirmed_at = $1, updated_at = now()
			WHERE id = $2 AND client_confirmed = false
		`
	case repository.PartyDriver:
		query = `
			UPDATE bookings
			SET driver_confirmed = true, driver_confirmed_at = $1, updated_at = now()
			WHERE id = $2 AND driver_confirmed = false
		`
	default:
		return repository.ErrNotFound
	}

	_, err := r.q.ExecContext(ctx, query, at, id)
	return err
}

// CompleteIfConfirmedAndUndisputed atomically transitions the booking to
// COMPLETED. The dispute gate is part of the UPDATE's predicate, so checking
// and acting happen in a single statement.
func (r *BookingRepository) CompleteIfConfirmedAndUndisputed(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE bookings SET trip_state = $1, updated_at = now()
		WHERE id = $2
		  AND driver_confirmed = true
		  AND client_confirmed = true
		  AND trip_state NOT IN ($3, $4)
		  AND NOT EXISTS (
			SELECT 1 FROM disputes d WHERE d.booking_id = bookings.id AND d.status = $5
		  )
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.TripStateCompleted,
		id,
		domain.TripStateCompleted,
		domain.TripStateCancelled,
		domain.DisputeStatusOpen,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// ListOverdueAwaitingClient returns bookings stuck with a one-sided driver
// confirmation older than cutoff.
func (r *BookingRepository) ListOverdueAwaitingClient(ctx context.Context, cutoff time.Time) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE driver_confirmed = true
		  AND client_confirmed = false
		  AND trip_state NOT IN ($1, $2)
		  AND updated_at < $3
		ORDER BY updated_at ASC
		LIMIT 500
	`

	rows, err := r.q.QueryContext(ctx, query, domain.TripStateCompleted, domain.TripStateCancelled, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var driverConfirmedAt sql.NullTime
	var clientConfirmedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.DriverID,
		&booking.PickupAddress,
		&booking.DropoffAddress,
		&booking.Price,
		&booking.PaymentState,
		&booking.TripState,
		&booking.DriverConfirmed,
		&driverConfirmedAt,
		&booking.ClientConfirmed,
		&clientConfirmedAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if driverConfirmedAt.Valid {
		booking.DriverConfirmedAt = driverConfirmedAt.Time
	}
	if clientConfirmedAt.Valid {
		booking.ClientConfirmedAt = clientConfirmedAt.Time
	}

	return &booking, nil
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
