package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	reviewservice "tandem/contexts/community-experience/review-service"
	paymentservice "tandem/contexts/finance-core/payment-service"
	campaignservice "tandem/contexts/marketplace/campaign-service"
	transactionservice "tandem/contexts/marketplace/transaction-service"
	moderationservice "tandem/contexts/moderation-safety/moderation-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "tandem/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	campaigns    campaignservice.Module
	transactions transactionservice.Module
	payments     paymentservice.Module
	reviews      reviewservice.Module
	moderation   moderationservice.Module
}

func New(
	campaigns campaignservice.Module,
	transactions transactionservice.Module,
	payments paymentservice.Module,
	reviews reviewservice.Module,
	moderation moderationservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		campaigns:    campaigns,
		transactions: transactions,
		payments:     payments,
		reviews:      reviews,
		moderation:   moderation,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/marketplace/v1/campaigns", s.handleCreateCampaign)
	s.mux.HandleFunc("PATCH /api/marketplace/v1/campaigns/{campaign_id}", s.handleUpdateCampaign)
	s.mux.HandleFunc("POST /api/marketplace/v1/campaigns/{campaign_id}/publish", s.handlePublishCampaign)
	s.mux.HandleFunc("POST /api/marketplace/v1/campaigns/{campaign_id}/close", s.handleCloseCampaign)
	s.mux.HandleFunc("GET /api/marketplace/v1/campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /api/marketplace/v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("GET /api/marketplace/v1/campaigns/{campaign_id}/progress", s.handleCampaignProgress)

	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/register", s.handleRegisterTransaction)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/offers", s.handleSendOffer)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/registration/review", s.handleReviewRegistration)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/offer/respond", s.handleRespondOffer)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/offer/payment", s.handleConfirmOfferPayment)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/submissions", s.handleSubmitPhase)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/submissions/review", s.handleReviewPhase)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/terminate", s.handleTerminateTransaction)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/withdraw", s.handleWithdrawPayout)
	s.mux.HandleFunc("GET /api/marketplace/v1/transactions", s.handleListTransactions)
	s.mux.HandleFunc("GET /api/marketplace/v1/transactions/{transaction_id}", s.handleGetTransaction)
	s.mux.HandleFunc("GET /api/marketplace/v1/transactions/{transaction_id}/progress", s.handleTransactionProgress)

	s.mux.HandleFunc("POST /api/payments/v1/payouts", s.handleRecordPayout)
	s.mux.HandleFunc("POST /api/payments/v1/fundings", s.handleRecordFunding)
	s.mux.HandleFunc("GET /api/payments/v1/transactions/{transaction_id}/funding", s.handleGetFunding)
	s.mux.HandleFunc("POST /api/payments/v1/payouts/mark-withdrawn", s.handleMarkPayoutWithdrawn)
	s.mux.HandleFunc("GET /api/payments/v1/users/{user_id}/payouts", s.handleListPayouts)
	s.mux.HandleFunc("GET /api/payments/v1/reports/monthly", s.handlePayoutReport)

	s.mux.HandleFunc("POST /api/community/v1/reviews", s.handleSubmitReview)
	s.mux.HandleFunc("GET /api/community/v1/reviews/{review_id}", s.handleGetReview)
	s.mux.HandleFunc("GET /api/community/v1/users/{user_id}/reviews", s.handleListReviews)
	s.mux.HandleFunc("GET /api/community/v1/users/{user_id}/rating", s.handleRatingSummary)

	s.mux.HandleFunc("POST /api/moderation/v1/reports", s.handleSubmitReport)
	s.mux.HandleFunc("GET /api/moderation/v1/reports/{report_id}", s.handleGetReport)
	s.mux.HandleFunc("GET /api/moderation/v1/queue", s.handleModerationQueue)
	s.mux.HandleFunc("POST /api/moderation/v1/reports/{report_id}/resolve", s.handleResolveReport)
}

func (s *Server) decodeJSON(
	w http.ResponseWriter,
	r *http.Request,
	target any,
	writeErr func(http.ResponseWriter, int, string, string),
) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
