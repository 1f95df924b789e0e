package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrNoPendingBooking signals a conditional status transition that matched
	// no document: the booking is gone or already left pending_payment.
	ErrNoPendingBooking = errors.New("no pending booking matched")
)
