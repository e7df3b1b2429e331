package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RecordCompletionRequest struct {
	TransactionID string  `json:"transaction_id"`
	CampaignID    string  `json:"campaign_id"`
	CreatorID     string  `json:"creator_id"`
	RewardAmount  float64 `json:"reward_amount"`
	FeeRate       float64 `json:"fee_rate,omitempty"`
	CompletedAt   string  `json:"completed_at,omitempty"`
}

type PayoutDTO struct {
	PayoutID      string  `json:"payout_id"`
	TransactionID string  `json:"transaction_id"`
	CampaignID    string  `json:"campaign_id"`
	UserID        string  `json:"user_id"`
	GrossAmount   float64 `json:"gross_amount"`
	FeeRate       float64 `json:"fee_rate"`
	FeeAmount     float64 `json:"fee_amount"`
	NetAmount     float64 `json:"net_amount"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	WithdrawnAt   string  `json:"withdrawn_at,omitempty"`
	SourceEventID string  `json:"source_event_id,omitempty"`
}

type PayoutResponse struct {
	Status   string    `json:"status"`
	Replayed bool      `json:"replayed,omitempty"`
	Data     PayoutDTO `json:"data"`
}

type RecordFundingRequest struct {
	TransactionID string  `json:"transaction_id"`
	CampaignID    string  `json:"campaign_id"`
	BusinessID    string  `json:"business_id"`
	RewardAmount  float64 `json:"reward_amount"`
	FeeRate       float64 `json:"fee_rate,omitempty"`
}

type FundingDTO struct {
	FundingID     string  `json:"funding_id"`
	TransactionID string  `json:"transaction_id"`
	CampaignID    string  `json:"campaign_id"`
	BusinessID    string  `json:"business_id"`
	RewardAmount  float64 `json:"reward_amount"`
	FeeRate       float64 `json:"fee_rate"`
	FeeAmount     float64 `json:"fee_amount"`
	TotalCharge   float64 `json:"total_charge"`
	CreatedAt     string  `json:"created_at"`
}

type FundingResponse struct {
	Status   string     `json:"status"`
	Replayed bool       `json:"replayed,omitempty"`
	Data     FundingDTO `json:"data"`
}

type TransactionCompletedEventRequest struct {
	EventID       string  `json:"event_id"`
	TransactionID string  `json:"transaction_id"`
	CampaignID    string  `json:"campaign_id"`
	CreatorID     string  `json:"creator_id"`
	RewardAmount  float64 `json:"reward_amount"`
	CompletedAt   string  `json:"completed_at"`
}

type MarkWithdrawnRequest struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
}

type PayoutHistoryRequest struct {
	UserID string
	Limit  int
	Offset int
}

type PayoutHistoryResponse struct {
	Status string      `json:"status"`
	Data   []PayoutDTO `json:"data"`
}

type PayoutReportRequest struct {
	Month string
}

type PayoutReportResponse struct {
	Status string `json:"status"`
	Data   struct {
		Month      string  `json:"month"`
		Count      int     `json:"count"`
		TotalGross float64 `json:"total_gross"`
		TotalFee   float64 `json:"total_fee"`
		TotalNet   float64 `json:"total_net"`
	} `json:"data"`
}
