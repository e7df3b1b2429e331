package errors

import "errors"

var (
	ErrReviewNotFound          = errors.New("review not found")
	ErrInvalidRequest          = errors.New("invalid review request")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrTransactionNotCompleted = errors.New("transaction is not completed")
	ErrNotParticipant          = errors.New("author is not a participant of the transaction")
	ErrDuplicateReview         = errors.New("review already submitted for this transaction")
)
