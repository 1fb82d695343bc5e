package domain

import "time"

// Transaction is the financial ledger row for one gateway payment event.
// The gateway reference is globally unique; the settled flag is the claim
// that grants exclusive right to attempt the driver payout transfer.
type Transaction struct {
	ID                string
	BookingID         string
	Reference         string
	Amount            int64 // gross, minor currency units
	DriverShare       int64
	PlatformShare     int64
	Settled           bool
	TransferReference string
	PayoutID          string // set once the transaction is covered by a batch payout
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
