package lifecycle

import "errors"

var (
	ErrUnknownStatus          = errors.New("unknown transaction status")
	ErrUnknownStep            = errors.New("unknown campaign step")
	ErrTransitionNotPermitted = errors.New("transaction status transition not permitted")
	ErrRevisionExhausted      = errors.New("content revision budget exhausted")
	ErrAmbiguousActiveWindow  = errors.New("more than one timeline window is active")
)
