package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TimelineWindowDTO struct {
	Step    string `json:"step"`
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

type CreateCampaignRequest struct {
	Title        string              `json:"title"`
	Brief        string              `json:"brief"`
	Requirements string              `json:"requirements"`
	CampaignType string              `json:"campaign_type"`
	Slots        int                 `json:"slots"`
	RewardAmount float64             `json:"reward_amount"`
	Timeline     []TimelineWindowDTO `json:"timeline"`
}

type UpdateCampaignRequest struct {
	Title        string  `json:"title"`
	Brief        string  `json:"brief"`
	Requirements string  `json:"requirements"`
	Slots        int     `json:"slots"`
	RewardAmount float64 `json:"reward_amount"`
}

type StatusActionRequest struct {
	Reason string `json:"reason"`
}

type CampaignDTO struct {
	CampaignID   string              `json:"campaign_id"`
	BusinessID   string              `json:"business_id"`
	Title        string              `json:"title"`
	Brief        string              `json:"brief"`
	Requirements string              `json:"requirements,omitempty"`
	CampaignType string              `json:"campaign_type"`
	Slots        int                 `json:"slots"`
	RewardAmount float64             `json:"reward_amount"`
	Timeline     []TimelineWindowDTO `json:"timeline"`
	Status       string              `json:"status"`
	PublishedAt  string              `json:"published_at,omitempty"`
	ClosedAt     string              `json:"closed_at,omitempty"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
}

type CreateCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
	Replayed bool        `json:"replayed"`
}

type ListCampaignsResponse struct {
	Items []CampaignDTO `json:"items"`
}

type GetCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type CampaignProgressResponse struct {
	CampaignID string   `json:"campaign_id"`
	ActiveStep string   `json:"active_step,omitempty"`
	Stepper    []string `json:"stepper"`
}
