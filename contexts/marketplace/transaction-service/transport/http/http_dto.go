package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	CampaignID string `json:"campaign_id"`
	Pitch      string `json:"pitch"`
}

type ReviewRegistrationRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

type SendOfferRequest struct {
	CampaignID string `json:"campaign_id"`
	CreatorID  string `json:"creator_id"`
	Message    string `json:"message"`
}

type RespondOfferRequest struct {
	Decision string `json:"decision"`
}

type ConfirmOfferPaymentRequest struct {
	PaymentRef string `json:"payment_ref"`
}

type SubmitPhaseRequest struct {
	Step    string `json:"step"`
	Content string `json:"content"`
}

type ReviewPhaseRequest struct {
	Step          string `json:"step"`
	Decision      string `json:"decision"`
	RejectionType string `json:"rejection_type"`
	Note          string `json:"note"`
}

type TerminateRequest struct {
	Reason string `json:"reason"`
}

type PhaseSubmissionDTO struct {
	SubmissionID  string `json:"submission_id"`
	Step          string `json:"step"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	RejectionType string `json:"rejection_type,omitempty"`
	ReviewNote    string `json:"review_note,omitempty"`
	SubmittedAt   string `json:"submitted_at"`
	ReviewedAt    string `json:"reviewed_at,omitempty"`
}

type PayoutDTO struct {
	Approved  bool `json:"approved"`
	Withdrawn bool `json:"withdrawn"`
}

type TransactionDTO struct {
	TransactionID      string               `json:"transaction_id"`
	CampaignID         string               `json:"campaign_id"`
	BusinessID         string               `json:"business_id"`
	CreatorID          string               `json:"creator_id"`
	Status             string               `json:"status"`
	RemainingRevisions int                  `json:"remaining_revisions"`
	Submissions        []PhaseSubmissionDTO `json:"submissions"`
	BusinessPayout     PayoutDTO            `json:"business_payout"`
	CreatorPayout      PayoutDTO            `json:"creator_payout"`
	OfferExpiresAt     string               `json:"offer_expires_at,omitempty"`
	TerminationReason  string               `json:"termination_reason,omitempty"`
	CompletedAt        string               `json:"completed_at,omitempty"`
	TerminatedAt       string               `json:"terminated_at,omitempty"`
	CreatedAt          string               `json:"created_at"`
	UpdatedAt          string               `json:"updated_at"`
}

type RegisterResponse struct {
	Transaction TransactionDTO `json:"transaction"`
	Replayed    bool           `json:"replayed"`
}

type SendOfferResponse struct {
	Transaction TransactionDTO `json:"transaction"`
}

type SubmitPhaseResponse struct {
	Transaction TransactionDTO     `json:"transaction"`
	Submission  PhaseSubmissionDTO `json:"submission"`
}

type GetTransactionResponse struct {
	Transaction TransactionDTO `json:"transaction"`
}

type ListTransactionsResponse struct {
	Items []TransactionDTO `json:"items"`
}

type TransactionProgressResponse struct {
	TransactionID        string   `json:"transaction_id"`
	CampaignID           string   `json:"campaign_id"`
	Status               string   `json:"status"`
	Step                 string   `json:"step"`
	RemainingRevisions   int      `json:"remaining_revisions"`
	Stepper              []string `json:"stepper"`
	WaitingBusinessInput bool     `json:"waiting_business_input"`
	WaitingCreatorInput  bool     `json:"waiting_creator_input"`
}
