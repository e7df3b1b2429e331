package httpserver

import (
	"errors"
	"net/http"
	"strings"

	transactionerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	transactionhttp "tandem/contexts/marketplace/transaction-service/transport/http"
	"tandem/internal/shared/lifecycle"
)

func writeTransactionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, transactionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeTransactionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transactionerrors.ErrTransactionNotFound),
		errors.Is(err, transactionerrors.ErrCampaignNotFound),
		errors.Is(err, transactionerrors.ErrSubmissionNotFound):
		writeTransactionError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, transactionerrors.ErrCampaignNotOpen),
		errors.Is(err, transactionerrors.ErrCampaignFull),
		errors.Is(err, transactionerrors.ErrDuplicateEngagement),
		errors.Is(err, transactionerrors.ErrSubmissionAlreadyOpen),
		errors.Is(err, transactionerrors.ErrInvalidStateTransition),
		errors.Is(err, transactionerrors.ErrPayoutNotWithdrawable),
		errors.Is(err, transactionerrors.ErrIdempotencyKeyConflict):
		writeTransactionError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, lifecycle.ErrRevisionExhausted):
		writeTransactionError(w, http.StatusConflict, "revision_exhausted", err.Error())
	case errors.Is(err, transactionerrors.ErrOfferExpired):
		writeTransactionError(w, http.StatusGone, "offer_expired", err.Error())
	case errors.Is(err, transactionerrors.ErrStepNotScheduled):
		writeTransactionError(w, http.StatusUnprocessableEntity, "step_not_scheduled", err.Error())
	case errors.Is(err, transactionerrors.ErrUnauthorizedActor):
		writeTransactionError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, transactionerrors.ErrInvalidTransactionInput),
		errors.Is(err, lifecycle.ErrUnknownStatus),
		errors.Is(err, lifecycle.ErrUnknownStep):
		writeTransactionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, transactionerrors.ErrIdempotencyKeyRequired):
		writeTransactionError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writeTransactionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireTransactionUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeTransactionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleRegisterTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	var req transactionhttp.RegisterRequest
	if !s.decodeJSON(w, r, &req, writeTransactionError) {
		return
	}
	resp, err := s.transactions.Handler.RegisterHandler(
		r.Context(),
		userID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleReviewRegistration(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	var req transactionhttp.ReviewRegistrationRequest
	if !s.decodeJSON(w, r, &req, writeTransactionError) {
		return
	}
	if err := s.transactions.Handler.ReviewRegistrationHandler(r.Context(), userID, r.PathValue("transaction_id"), req); err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	var req transactionhttp.SendOfferRequest
	if !s.decodeJSON(w, r, &req, writeTransactionError) {
		return
	}
	resp, err := s.transactions.Handler.SendOfferHandler(r.Context(), userID, req)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRespondOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	var req transactionhttp.RespondOfferRequest
	if !s.decodeJSON(w, r, &req, writeTransactionError) {
		return
	}
	if err := s.transactions.Handler.RespondOfferHandler(r.Context(), userID, r.PathValue("transaction_id"), req); err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfirmOfferPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	var req transactionhttp.ConfirmOfferPaymentRequest
	if !s.decodeJSON(w, r, &req, writeTransactionError) {
		return
	}
	if err := s.transactions.Handler.ConfirmOfferPaymentHandler(r.Context(), userID, r.PathValue("transaction_id"), req); err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitPhase(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	var req transactionhttp.SubmitPhaseRequest
	if !s.decodeJSON(w, r, &req, writeTransactionError) {
		return
	}
	resp, err := s.transactions.Handler.SubmitPhaseHandler(r.Context(), userID, r.PathValue("transaction_id"), req)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleReviewPhase(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	var req transactionhttp.ReviewPhaseRequest
	if !s.decodeJSON(w, r, &req, writeTransactionError) {
		return
	}
	if err := s.transactions.Handler.ReviewPhaseHandler(r.Context(), userID, r.PathValue("transaction_id"), req); err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTerminateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	var req transactionhttp.TerminateRequest
	if !s.decodeJSON(w, r, &req, writeTransactionError) {
		return
	}
	if err := s.transactions.Handler.TerminateHandler(r.Context(), userID, r.PathValue("transaction_id"), req); err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWithdrawPayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}
	if err := s.transactions.Handler.WithdrawPayoutHandler(r.Context(), userID, r.PathValue("transaction_id")); err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.transactions.Handler.ListTransactionsHandler(
		r.Context(),
		query.Get("campaign_id"),
		query.Get("creator_id"),
		query.Get("business_id"),
		query.Get("status"),
	)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	resp, err := s.transactions.Handler.GetTransactionHandler(r.Context(), r.PathValue("transaction_id"))
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransactionProgress(w http.ResponseWriter, r *http.Request) {
	resp, err := s.transactions.Handler.TransactionProgressHandler(
		r.Context(),
		r.PathValue("transaction_id"),
		r.URL.Query().Get("role"),
	)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
