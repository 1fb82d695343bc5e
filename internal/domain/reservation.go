package domain

import "time"

// Reservation is a short-lived, priced booking intent. It is created on
// intent submission, consumed exactly once by the payment finalizer, and
// never mutated otherwise.
type Reservation struct {
	ID             string
	ClientID       string
	DriverID       string
	PickupAddress  string
	DropoffAddress string
	Price          int64 // minor currency units, supplied by the routing collaborator
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Expired reports whether the reservation's TTL has elapsed at the given time.
func (r *Reservation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
