package service

import "errors"

var (
	// ErrReservationNotFound is returned when the reservation named by a
	// payment's metadata does not exist or was already consumed.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrReservationExpired is returned when finalizing against a
	// reservation whose TTL has elapsed. Terminal, no retry.
	ErrReservationExpired = errors.New("reservation expired")

	// ErrGatewayUnavailable is returned when the payment gateway cannot be
	// reached or answers with a server error. Transient, retry with backoff.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrTransferFailed is returned when the payout transfer was rejected.
	// The settlement claim has been reverted; the operation is retryable.
	ErrTransferFailed = errors.New("payout transfer failed")

	// ErrPaymentNotSuccessful is returned when a verified gateway
	// transaction is not in a successful state.
	ErrPaymentNotSuccessful = errors.New("payment not successful")

	// ErrDisputeOpen is returned when an open dispute defers completion.
	ErrDisputeOpen = errors.New("booking has an open dispute")

	// ErrBookingNotConfirmable is returned when confirming a booking that is
	// cancelled or was never paid.
	ErrBookingNotConfirmable = errors.New("booking cannot be confirmed in current state")

	// ErrBookingNotAccepted is returned when starting a trip that the driver
	// has not accepted.
	ErrBookingNotAccepted = errors.New("booking not accepted")

	// ErrBookingNotPending is returned when accepting a booking that is not
	// awaiting acceptance.
	ErrBookingNotPending = errors.New("booking not pending acceptance")

	// ErrBookingNotCancellable is returned when cancelling a booking whose
	// trip has already started or finished.
	ErrBookingNotCancellable = errors.New("booking cannot be cancelled in current state")

	// ErrBookingNotSettleable is returned when settling a booking whose
	// funds are not held in escrow, such as a refunded one. The settlement
	// claim has been reverted.
	ErrBookingNotSettleable = errors.New("booking payment is not held for settlement")

	// ErrNoRecipient is returned when a driver has no verified payout
	// recipient registered.
	ErrNoRecipient = errors.New("driver has no payout recipient")

	// ErrNothingToWithdraw is returned when a withdrawal finds no settled,
	// unpaid-out transactions.
	ErrNothingToWithdraw = errors.New("no settled funds to withdraw")

	// ErrInvalidBookingID is returned when a booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidReference is returned when a gateway reference is empty.
	ErrInvalidReference = errors.New("invalid gateway reference")

	// ErrInvalidReservation is returned when a reservation quote is missing
	// required fields.
	ErrInvalidReservation = errors.New("invalid reservation")

	// ErrInvalidDriverID is returned when a driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidDisputeID is returned when a dispute ID is empty.
	ErrInvalidDisputeID = errors.New("invalid dispute id")

	// ErrInvalidAmount is returned when a monetary amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")
)
