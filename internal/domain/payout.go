package domain

import "time"

// Payout records a batch transfer to a driver covering one or more settled
// transactions that had not yet been paid out.
type Payout struct {
	ID                string
	DriverID          string
	Amount            int64 // minor currency units
	TransferReference string
	CreatedAt         time.Time
}
