package postgres

import (
	"context"
	"database/sql"
	"errors"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
)

// PayoutRepository is a PostgreSQL implementation of repository.PayoutRepository.
type PayoutRepository struct {
	q Querier
}

// NewPayoutRepository creates a new PostgreSQL payout repository.
func NewPayoutRepository(db *sql.DB) *PayoutRepository {
	return &PayoutRepository{q: db}
}

// Create persists a new payout.
func (r *PayoutRepository) Create(ctx context.Context, payout *domain.Payout) error {
	query := `
		INSERT INTO payouts (id, driver_id, amount, transfer_reference, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		payout.ID,
		payout.DriverID,
		payout.Amount,
		payout.TransferReference,
		payout.CreatedAt,
	)

	return err
}

// GetByID retrieves a payout by ID.
func (r *PayoutRepository) GetByID(ctx context.Context, id string) (*domain.Payout, error) {
	query := `
		SELECT id, driver_id, amount, transfer_reference, created_at
		FROM payouts WHERE id = $1
	`

	var payout domain.Payout
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&payout.ID,
		&payout.DriverID,
		&payout.Amount,
		&payout.TransferReference,
		&payout.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &payout, nil
}

// ListByDriverID retrieves payouts for a driver, newest first.
func (r *PayoutRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.Payout, error) {
	query := `
		SELECT id, driver_id, amount, transfer_reference, created_at
		FROM payouts WHERE driver_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []*domain.Payout
	for rows.Next() {
		var payout domain.Payout
		if err := rows.Scan(
			&payout.ID,
			&payout.DriverID,
			&payout.Amount,
			&payout.TransferReference,
			&payout.CreatedAt,
		); err != nil {
			return nil, err
		}
		payouts = append(payouts, &payout)
	}

	return payouts, rows.Err()
}

// Ensure PayoutRepository implements repository.PayoutRepository.
var _ repository.PayoutRepository = (*PayoutRepository)(nil)
