package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles booking read caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// BookingCacheTTL is short because completion and settlement mutate bookings
// from several concurrent paths.
const BookingCacheTTL = 10 * time.Second

const bookingCachePrefix = "cache:booking:"

// CachedBooking represents a cached booking entity.
type CachedBooking struct {
	ID              string `json:"id"`
	ClientID        string `json:"client_id"`
	DriverID        string `json:"driver_id"`
	Price           int64  `json:"price"`
	PaymentState    string `json:"payment_state"`
	TripState       string `json:"trip_state"`
	DriverConfirmed bool   `json:"driver_confirmed"`
	ClientConfirmed bool   `json:"client_confirmed"`
}

// GetBooking retrieves a booking from cache.
// Returns nil on a cache miss.
func (s *CacheStore) GetBooking(ctx context.Context, bookingID string) (*CachedBooking, error) {
	data, err := s.client.Get(ctx, bookingCachePrefix+bookingID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var cached CachedBooking
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

// SetBooking stores a booking in cache.
func (s *CacheStore) SetBooking(ctx context.Context, booking *CachedBooking) error {
	data, err := json.Marshal(booking)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, bookingCachePrefix+booking.ID, data, BookingCacheTTL).Err()
}

// InvalidateBooking drops a booking from cache after a mutation.
func (s *CacheStore) InvalidateBooking(ctx context.Context, bookingID string) error {
	return s.client.Del(ctx, bookingCachePrefix+bookingID).Err()
}
