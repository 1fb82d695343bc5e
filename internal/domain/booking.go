package domain

import "time"

// PaymentState represents the payment status of a booking.
type PaymentState string

const (
	PaymentStatePending  PaymentState = "PENDING"
	PaymentStatePaid     PaymentState = "PAID"
	PaymentStateRefunded PaymentState = "REFUNDED"
	PaymentStateFailed   PaymentState = "FAILED"
)

// TripState represents the trip lifecycle status of a booking.
type TripState string

const (
	TripStatePending   TripState = "PENDING"
	TripStateAccepted  TripState = "ACCEPTED"
	TripStateOngoing   TripState = "ONGOING"
	TripStateCompleted TripState = "COMPLETED"
	TripStateCancelled TripState = "CANCELLED"
)

// Booking represents a durable, paid-for trip record.
// It is created exactly once per payment reference by the finalizer.
type Booking struct {
	ID                string
	ClientID          string
	DriverID          string
	PickupAddress     string
	DropoffAddress    string
	Price             int64 // minor currency units
	PaymentState      PaymentState
	TripState         TripState
	DriverConfirmed   bool
	DriverConfirmedAt time.Time
	ClientConfirmed   bool
	ClientConfirmedAt time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
