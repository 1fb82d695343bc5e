package domain

import "time"

// DisputeStatus represents the current status of a dispute.
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
)

// Dispute flags a booking as contested. While any dispute on a booking is
// open, the booking must not advance to COMPLETED and must not settle.
type Dispute struct {
	ID         string
	BookingID  string
	RaisedBy   string
	Reason     string
	Status     DisputeStatus
	CreatedAt  time.Time
	ResolvedAt time.Time
}
