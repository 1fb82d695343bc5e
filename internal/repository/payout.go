package repository

import (
	"context"

	"drivelink/internal/domain"
)

// PayoutRepository defines the persistence operations for payouts.
type PayoutRepository interface {
	// Create persists a new payout.
	Create(ctx context.Context, payout *domain.Payout) error

	// GetByID retrieves a payout by ID.
	GetByID(ctx context.Context, id string) (*domain.Payout, error)

	// ListByDriverID retrieves payouts for a driver, newest first.
	ListByDriverID(ctx context.Context, driverID string) ([]*domain.Payout, error)
}
