package httpserver

import (
	"errors"
	"net/http"
	"strings"

	moderationerrors "tandem/contexts/moderation-safety/moderation-service/domain/errors"
	moderationhttp "tandem/contexts/moderation-safety/moderation-service/transport/http"
	transactionerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
)

func writeModerationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, moderationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeModerationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, moderationerrors.ErrNotFound):
		writeModerationError(w, http.StatusNotFound, "report_not_found", err.Error())
	case errors.Is(err, moderationerrors.ErrInvalidRequest):
		writeModerationError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, moderationerrors.ErrIdempotencyKeyRequired):
		writeModerationError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, moderationerrors.ErrIdempotencyConflict):
		writeModerationError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, moderationerrors.ErrReportAlreadyResolved):
		writeModerationError(w, http.StatusConflict, "report_already_resolved", err.Error())
	case errors.Is(err, moderationerrors.ErrDependencyUnavailable):
		writeModerationError(w, http.StatusServiceUnavailable, "dependency_unavailable", err.Error())
	// The termination client surfaces marketplace errors as-is.
	case errors.Is(err, transactionerrors.ErrTransactionNotFound):
		writeModerationError(w, http.StatusNotFound, "transaction_not_found", err.Error())
	case errors.Is(err, transactionerrors.ErrInvalidStateTransition):
		writeModerationError(w, http.StatusConflict, "transaction_not_terminable", err.Error())
	default:
		writeModerationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireModerationUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeModerationError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func requireModerationIdempotency(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		writeModerationError(w, http.StatusBadRequest, "idempotency_key_required", "Idempotency-Key header is required")
		return "", false
	}
	return key, true
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	reporterID, ok := requireModerationUser(w, r)
	if !ok {
		return
	}
	idempotencyKey, ok := requireModerationIdempotency(w, r)
	if !ok {
		return
	}
	var req moderationhttp.SubmitReportRequest
	if !s.decodeJSON(w, r, &req, writeModerationError) {
		return
	}
	resp, err := s.moderation.Handler.SubmitReportHandler(r.Context(), idempotencyKey, reporterID, req)
	if err != nil {
		writeModerationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.moderation.Handler.GetReportHandler(r.Context(), r.PathValue("report_id"))
	if err != nil {
		writeModerationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModerationQueue(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireModerationUser(w, r); !ok {
		return
	}
	resp, err := s.moderation.Handler.ListQueueHandler(
		r.Context(),
		r.URL.Query().Get("status"),
		r.URL.Query().Get("limit"),
		r.URL.Query().Get("offset"),
	)
	if err != nil {
		writeModerationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveReport(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := requireModerationUser(w, r)
	if !ok {
		return
	}
	idempotencyKey, ok := requireModerationIdempotency(w, r)
	if !ok {
		return
	}
	var req moderationhttp.ResolveReportRequest
	if !s.decodeJSON(w, r, &req, writeModerationError) {
		return
	}
	resp, err := s.moderation.Handler.ResolveReportHandler(
		r.Context(),
		idempotencyKey,
		moderatorID,
		r.PathValue("report_id"),
		req,
	)
	if err != nil {
		writeModerationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
