package redis

import (
	"context"
	"time"

	"drivelink/internal/domain"
)

// ReservationStoreInterface defines the interface for reservation quotes.
type ReservationStoreInterface interface {
	Put(ctx context.Context, res *domain.Reservation) error
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	Delete(ctx context.Context, id string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context) error
}

// Ensure concrete types implement interfaces.
var (
	_ ReservationStoreInterface = (*ReservationStore)(nil)
	_ LockStoreInterface        = (*LockStore)(nil)
)
