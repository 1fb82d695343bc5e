package domain

import "time"

// User represents a client in the marketplace.
type User struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}
