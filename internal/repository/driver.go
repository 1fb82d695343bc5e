package repository

import (
	"context"

	"drivelink/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create persists a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// UpdateRecipientCode sets the driver's verified payout recipient.
	UpdateRecipientCode(ctx context.Context, id, recipientCode string) error

	// IncrementTripsCompleted adds one to the driver's completed-trip counter.
	IncrementTripsCompleted(ctx context.Context, id string) error
}
