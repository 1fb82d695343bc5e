package domain

// Driver represents a driver in the marketplace.
type Driver struct {
	ID             string
	Name           string
	Phone          string
	RecipientCode  string // verified payout recipient at the payment gateway
	TripsCompleted int
}
