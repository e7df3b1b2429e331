package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitReportRequest struct {
	TransactionID string `json:"transaction_id,omitempty"`
	SubjectUserID string `json:"subject_user_id,omitempty"`
	Reason        string `json:"reason"`
	Details       string `json:"details,omitempty"`
}

type ResolveReportRequest struct {
	Action     string `json:"action"`
	Resolution string `json:"resolution,omitempty"`
}

type ReportDTO struct {
	ReportID              string `json:"report_id"`
	TransactionID         string `json:"transaction_id,omitempty"`
	SubjectUserID         string `json:"subject_user_id,omitempty"`
	ReporterID            string `json:"reporter_id"`
	Reason                string `json:"reason"`
	Details               string `json:"details,omitempty"`
	Status                string `json:"status"`
	CreatedAt             string `json:"created_at"`
	ResolvedAt            string `json:"resolved_at,omitempty"`
	ResolvedBy            string `json:"resolved_by,omitempty"`
	Resolution            string `json:"resolution,omitempty"`
	TransactionTerminated bool   `json:"transaction_terminated,omitempty"`
}

type ReportResponse struct {
	Status string    `json:"status"`
	Data   ReportDTO `json:"data"`
}

type QueueResponse struct {
	Status string      `json:"status"`
	Data   []ReportDTO `json:"data"`
}
