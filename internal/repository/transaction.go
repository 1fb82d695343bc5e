package repository

import (
	"context"

	"drivelink/internal/domain"
)

// TransactionRepository defines the persistence operations for transactions.
type TransactionRepository interface {
	// Create persists a new transaction. Returns ErrDuplicateReference if a
	// transaction with the same gateway reference already exists.
	Create(ctx context.Context, tx *domain.Transaction) error

	// GetByReference retrieves a transaction by gateway reference.
	// Returns nil if no transaction exists with the given reference.
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)

	// GetByBookingID retrieves the transaction for a booking.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Transaction, error)

	// Claim atomically flips settled from false to true for the booking's
	// transaction and returns the claimed row. Returns nil if the
	// transaction was already claimed or settled, granting the claim to at
	// most one caller.
	Claim(ctx context.Context, bookingID string) (*domain.Transaction, error)

	// ReleaseClaim reverts a claim (settled true -> false) so a future
	// settlement attempt can re-claim. Returns ErrNotFound if the row is no
	// longer in the claimed state.
	ReleaseClaim(ctx context.Context, id string) error

	// RecordSettlement fills in the commission split and transfer reference
	// on a claimed transaction.
	RecordSettlement(ctx context.Context, id string, driverShare, platformShare int64, transferRef string) error

	// ListSettledUnpaid returns settled transactions for a driver that are
	// not yet covered by a payout.
	ListSettledUnpaid(ctx context.Context, driverID string) ([]*domain.Transaction, error)

	// AssignPayout stamps the given payout on the listed transactions,
	// skipping any that were concurrently assigned elsewhere. Returns the
	// ids actually stamped.
	AssignPayout(ctx context.Context, payoutID string, transactionIDs []string) ([]string, error)
}
