package errors

import "errors"

var (
	ErrNotFound               = errors.New("payout not found")
	ErrInvalidInput           = errors.New("invalid payout input")
	ErrIdempotencyKeyMissing  = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with a different request")
	ErrPayoutAlreadyWithdrawn = errors.New("payout already withdrawn")
)
