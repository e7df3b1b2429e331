package errors

import "errors"

var (
	ErrNotFound               = errors.New("report not found")
	ErrInvalidRequest         = errors.New("invalid moderation request")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with a different request")
	ErrReportAlreadyResolved  = errors.New("report already resolved")
	ErrDependencyUnavailable  = errors.New("moderation dependency unavailable")
)
