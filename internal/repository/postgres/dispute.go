package postgres

import (
	"context"
	"database/sql"
	"errors"

	"drivelink/internal/domain"
	"drivelink/internal/repository"
)

// DisputeRepository is a PostgreSQL implementation of repository.DisputeRepository.
type DisputeRepository struct {
	q Querier
}

// NewDisputeRepository creates a new PostgreSQL dispute repository.
func NewDisputeRepository(db *sql.DB) *DisputeRepository {
	return &DisputeRepository{q: db}
}

// Create persists a new dispute.
func (r *DisputeRepository) Create(ctx context.Context, dispute *domain.Dispute) error {
	query := `
		INSERT INTO disputes (id, booking_id, raised_by, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		dispute.ID,
		dispute.BookingID,
		dispute.RaisedBy,
		dispute.Reason,
		dispute.Status,
		dispute.CreatedAt,
	)

	return err
}

// GetByID retrieves a dispute by ID.
func (r *DisputeRepository) GetByID(ctx context.Context, id string) (*domain.Dispute, error) {
	query := `
		SELECT id, booking_id, raised_by, reason, status, created_at, resolved_at
		FROM disputes WHERE id = $1
	`

	var dispute domain.Dispute
	var resolvedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&dispute.ID,
		&dispute.BookingID,
		&dispute.RaisedBy,
		&dispute.Reason,
		&dispute.Status,
		&dispute.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if resolvedAt.Valid {
		dispute.ResolvedAt = resolvedAt.Time
	}

	return &dispute, nil
}

// HasOpenDispute reports whether any open dispute references the booking.
func (r *DisputeRepository) HasOpenDispute(ctx context.Context, bookingID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM disputes WHERE booking_id = $1 AND status = $2)`

	var open bool
	if err := r.q.QueryRowContext(ctx, query, bookingID, domain.DisputeStatusOpen).Scan(&open); err != nil {
		return false, err
	}

	return open, nil
}

// Resolve marks a dispute resolved.
func (r *DisputeRepository) Resolve(ctx context.Context, id string) error {
	query := `
		UPDATE disputes SET status = $1, resolved_at = now()
		WHERE id = $2 AND status = $3
	`

	_, err := r.q.ExecContext(ctx, query, domain.DisputeStatusResolved, id, domain.DisputeStatusOpen)
	return err
}

// Ensure DisputeRepository implements repository.DisputeRepository.
var _ repository.DisputeRepository = (*DisputeRepository)(nil)
