package service

import "context"

// ChargeAuthorization is the result of initializing a charge at the gateway.
type ChargeAuthorization struct {
	AuthorizationURL string
	Reference        string
}

// GatewayTransaction is the gateway's view of a payment, as returned by
// verification. Amount is in minor currency units.
type GatewayTransaction struct {
	Reference string
	Status    string
	Amount    int64
	Metadata  map[string]string
}

// TransactionSuccessful reports whether the gateway considers the payment
// settled on its side.
func (t *GatewayTransaction) TransactionSuccessful() bool {
	return t.Status == "success"
}

// Gateway is the interface to the external payment provider. All calls are
// fire-and-wait; once a durable local record exists, the engine, not the
// gateway, is the source of truth.
type Gateway interface {
	// InitializeCharge starts a hosted checkout for the given amount and
	// returns the authorization URL plus the gateway's payment reference.
	InitializeCharge(ctx context.Context, email string, amount int64, metadata map[string]string) (*ChargeAuthorization, error)

	// VerifyTransaction fetches the authoritative state of a payment.
	VerifyTransaction(ctx context.Context, reference string) (*GatewayTransaction, error)

	// InitiateTransfer sends funds to a verified recipient. The reference is
	// chosen by the caller and deduplicated at the gateway, so retrying a
	// transfer with the same reference is safe.
	InitiateTransfer(ctx context.Context, recipientCode string, amount int64, reference, reason string) (string, error)

	// Refund returns a charged payment to the payer.
	Refund(ctx context.Context, reference string, amount int64) error
}
