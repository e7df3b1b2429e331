package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	paymenterrors "tandem/contexts/finance-core/payment-service/domain/errors"
	paymenthttp "tandem/contexts/finance-core/payment-service/transport/http"
)

func writePaymentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, paymenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writePaymentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paymenterrors.ErrNotFound):
		writePaymentError(w, http.StatusNotFound, "payout_not_found", err.Error())
	case errors.Is(err, paymenterrors.ErrInvalidInput):
		writePaymentError(w, http.StatusBadRequest, "invalid_payout_input", err.Error())
	case errors.Is(err, paymenterrors.ErrIdempotencyKeyMissing):
		writePaymentError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, paymenterrors.ErrIdempotencyConflict):
		writePaymentError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, paymenterrors.ErrPayoutAlreadyWithdrawn):
		writePaymentError(w, http.StatusConflict, "payout_already_withdrawn", err.Error())
	default:
		writePaymentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleRecordPayout(w http.ResponseWriter, r *http.Request) {
	var req paymenthttp.RecordCompletionRequest
	if !s.decodeJSON(w, r, &req, writePaymentError) {
		return
	}
	resp, err := s.payments.Handler.RecordCompletionHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRecordFunding(w http.ResponseWriter, r *http.Request) {
	var req paymenthttp.RecordFundingRequest
	if !s.decodeJSON(w, r, &req, writePaymentError) {
		return
	}
	resp, err := s.payments.Handler.RecordFundingHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetFunding(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payments.Handler.GetFundingHandler(r.Context(), r.PathValue("transaction_id"))
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkPayoutWithdrawn(w http.ResponseWriter, r *http.Request) {
	var req paymenthttp.MarkWithdrawnRequest
	if !s.decodeJSON(w, r, &req, writePaymentError) {
		return
	}
	resp, err := s.payments.Handler.MarkWithdrawnHandler(r.Context(), req)
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := paymenthttp.PayoutHistoryRequest{UserID: r.PathValue("user_id")}
	if parsed, err := strconv.Atoi(strings.TrimSpace(query.Get("limit"))); err == nil {
		req.Limit = parsed
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(query.Get("offset"))); err == nil {
		req.Offset = parsed
	}
	resp, err := s.payments.Handler.ListPayoutsHandler(r.Context(), req)
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePayoutReport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payments.Handler.MonthlyReportHandler(r.Context(), paymenthttp.PayoutReportRequest{
		Month: r.URL.Query().Get("month"),
	})
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
