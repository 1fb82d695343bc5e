package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
)

// TransactionRepository is a PostgreSQL implementation of repository.TransactionRepository.
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// NewTransactionRepositoryWithTx creates a transaction repository using a transaction.
func NewTransactionRepositoryWithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const transactionColumns = `
	id, booking_id, reference, amount, driver_share, platform_share,
	settled, transfer_reference, payout_id, created_at, updated_at
`

// uniqueViolation is the PostgreSQL error code for a unique constraint breach.
const uniqueViolation = "23505"

// Create persists a new transaction. The unique index on reference turns a
// concurrent double-finalization into ErrDuplicateReference.
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, booking_id, reference, amount, driver_share, platform_share,
			settled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		tx.ID,
		tx.BookingID,
		tx.Reference,
		tx.Amount,
		tx.DriverShare,
		tx.PlatformShare,
		tx.Settled,
		tx.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicateReference
		}
		return err
	}

	return nil
}

// GetByReference retrieves a transaction by gateway reference.
// Returns nil if no transaction exists with the given reference.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`

	tx, err := scanTransaction(r.q.QueryRowContext(ctx, query, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return tx, nil
}

// GetByBookingID retrieves the transaction for a booking.
func (r *TransactionRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE booking_id = $1`

	tx, err := scanTransaction(r.q.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return tx, nil
}

// Claim atomically flips settled false -> true and returns the claimed row.
// The conditional update is the sole mutual-exclusion mechanism for "who gets
// to attempt the payout transfer"; no rows updated means another caller holds
// or held the claim.
func (r *TransactionRepository) Claim(ctx context.Context, bookingID string) (*domain.Transaction, error) {
	query := `
		UPDATE transactions SET settled = true, updated_at = now()
		WHERE booking_id = $1 AND settled = false
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(r.q.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return tx, nil
}

// ReleaseClaim reverts a claim so a future settlement attempt can re-claim.
func (r *TransactionRepository) ReleaseClaim(ctx context.Context, id string) error {
	query := `
		UPDATE transactions SET settled = false, updated_at = now()
		WHERE id = $1 AND settled = true
	`

	result, err := r.q.ExecContext(ctx, query, id)
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

// RecordSettlement fills in the commission split and transfer reference.
func (r *TransactionRepository) RecordSettlement(ctx context.Context, id string, driverShare, platformShare int64, transferRef string) error {
	query := `
		UPDATE transactions
		SET driver_share = $1, platform_share = $2, transfer_reference = $3, updated_at = now()
		WHERE id = $4
	`

	result, err := r.q.ExecContext(ctx, query, driverShare, platformShare, transferRef, id)
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

// ListSettledUnpaid returns settled transactions for a driver not yet covered
// by a payout.
func (r *TransactionRepository) ListSettledUnpaid(ctx context.Context, driverID string) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		WHERE t.settled = true
		  AND t.payout_id IS NULL
		  AND t.booking_id IN (SELECT id FROM bookings WHERE driver_id = $1)
		ORDER BY t.created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

// AssignPayout stamps the payout on the listed transactions. The payout_id IS
// NULL predicate makes concurrent withdrawal requests carve up the set instead
// of double-paying a row.
func (r *TransactionRepository) AssignPayout(ctx context.Context, payoutID string, transactionIDs []string) ([]string, error) {
	query := `
		UPDATE transactions SET payout_id = $1, updated_at = now()
		WHERE id = ANY($2) AND payout_id IS NULL
		RETURNING id
	`

	rows, err := r.q.QueryContext(ctx, query, payoutID, pq.Array(transactionIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stamped []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		stamped = append(stamped, id)
	}

	return stamped, rows.Err()
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var transferRef sql.NullString
	var payoutID sql.NullString

	err := row.Scan(
		&tx.ID,
		&tx.BookingID,
		&tx.Reference,
		&tx.Amount,
		&tx.DriverShare,
		&tx.PlatformShare,
		&tx.Settled,
		&transferRef,
		&payoutID,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if transferRef.Valid {
		tx.TransferReference = transferRef.String
	}
	if payoutID.Valid {
		tx.PayoutID = payoutID.String
	}

	return &tx, nil
}

// Ensure TransactionRepository implements repository.TransactionRepository.
var _ repository.TransactionRepository = (*TransactionRepository)(nil)
