package repository

import (
	"context"

	"drivelink/internal/domain"
)

// DisputeRepository defines the persistence operations for disputes.
type DisputeRepository interface {
	// Create persists a new dispute.
	Create(ctx context.Context, dispute *domain.Dispute) error

	// GetByID retrieves a dispute by ID.
	GetByID(ctx context.Context, id string) (*domain.Dispute, error)

	// HasOpenDispute reports whether any open dispute references the booking.
	HasOpenDispute(ctx context.Context, bookingID string) (bool, error)

	// Resolve marks a dispute resolved. Resolving an already-resolved
	// dispute is a no-op success.
	Resolve(ctx context.Context, id string) error
}
