package errors

import "errors"

var (
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrCampaignNotOpen         = errors.New("campaign is not open for registration")
	ErrCampaignFull            = errors.New("campaign has no free slots")
	ErrDuplicateEngagement     = errors.New("creator already engaged with campaign")
	ErrInvalidTransactionInput = errors.New("invalid transaction input")
	ErrInvalidStateTransition  = errors.New("transaction state transition not permitted")
	ErrStepNotScheduled        = errors.New("step is not part of the campaign timeline")
	ErrSubmissionNotFound      = errors.New("no pending submission for step")
	ErrSubmissionAlreadyOpen   = errors.New("a submission for this step is already pending review")
	ErrUnauthorizedActor       = errors.New("actor is not permitted to perform this action")
	ErrPayoutNotWithdrawable   = errors.New("payout is not withdrawable")
	ErrOfferExpired            = errors.New("offer has expired")
	ErrIdempotencyKeyRequired  = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict  = errors.New("idempotency key reused with a different request")
)
