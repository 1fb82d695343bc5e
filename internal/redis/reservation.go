package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"drivelink/internal/domain"
)

const reservationKeyPrefix = "reservation:"

// ReservationStore holds short-lived booking quotes in Redis. Entries carry
// both a Redis TTL and an explicit ExpiresAt; the finalizer checks the latter
// so expiry stays correct even if the key outlives its TTL on a replica.
type ReservationStore struct {
	client *redis.Client
}

// NewReservationStore creates a new ReservationStore.
func NewReservationStore(client *redis.Client) *ReservationStore {
	return &ReservationStore{client: client}
}

// storedReservation is the JSON shape kept in Redis.
type storedReservation struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	DriverID       string    `json:"driver_id"`
	PickupAddress  string    `json:"pickup_addr"`
	DropoffAddress string    `json:"dropoff_addr"`
	Price          int64     `json:"price"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Put stores a reservation until its expiry time.
func (s *ReservationStore) Put(ctx context.Context, res *domain.Reservation) error {
	data, err := json.Marshal(storedReservation{
		ID:             res.ID,
		ClientID:       res.ClientID,
		DriverID:       res.DriverID,
		PickupAddress:  res.PickupAddress,
		DropoffAddress: res.DropoffAddress,
		Price:          res.Price,
		CreatedAt:      res.CreatedAt,
		ExpiresAt:      res.ExpiresAt,
	})
	if err != nil {
		return err
	}

	ttl := time.Until(res.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("reservation %s already expired", res.ID)
	}

	return s.client.Set(ctx, reservationKeyPrefix+res.ID, data, ttl).Err()
}

// Get retrieves a reservation by ID.
// Returns nil if no reservation exists with the given ID.
func (s *ReservationStore) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	data, err := s.client.Get(ctx, reservationKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var stored storedReservation
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &domain.Reservation{
		ID:             stored.ID,
		ClientID:       stored.ClientID,
		DriverID:       stored.DriverID,
		PickupAddress:  stored.PickupAddress,
		DropoffAddress: stored.DropoffAddress,
		Price:          stored.Price,
		CreatedAt:      stored.CreatedAt,
		ExpiresAt:      stored.ExpiresAt,
	}, nil
}

// Delete removes a reservation. Deleting a missing key is a no-op.
func (s *ReservationStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, reservationKeyPrefix+id).Err()
}
