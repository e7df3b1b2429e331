package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitReviewRequest struct {
	TransactionID string `json:"transaction_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment,omitempty"`
}

type ReviewDTO struct {
	ReviewID      string `json:"review_id"`
	TransactionID string `json:"transaction_id"`
	CampaignID    string `json:"campaign_id"`
	AuthorID      string `json:"author_id"`
	AuthorRole    string `json:"author_role"`
	SubjectID     string `json:"subject_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type ReviewResponse struct {
	Status string    `json:"status"`
	Data   ReviewDTO `json:"data"`
}

type ReviewListRequest struct {
	SubjectID string
	Limit     int
	Offset    int
}

type ReviewListResponse struct {
	Status string      `json:"status"`
	Data   []ReviewDTO `json:"data"`
}

type RatingSummaryResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserID        string  `json:"user_id"`
		ReviewCount   int     `json:"review_count"`
		AverageRating float64 `json:"average_rating"`
	} `json:"data"`
}
