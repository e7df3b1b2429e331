package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	reviewerrors "tandem/contexts/community-experience/review-service/domain/errors"
	reviewhttp "tandem/contexts/community-experience/review-service/transport/http"
)

func writeReviewError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reviewhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeReviewDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reviewerrors.ErrReviewNotFound),
		errors.Is(err, reviewerrors.ErrTransactionNotFound):
		writeReviewError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, reviewerrors.ErrInvalidRequest):
		writeReviewError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, reviewerrors.ErrTransactionNotCompleted):
		writeReviewError(w, http.StatusUnprocessableEntity, "transaction_not_completed", err.Error())
	case errors.Is(err, reviewerrors.ErrNotParticipant):
		writeReviewError(w, http.StatusForbidden, "not_participant", err.Error())
	case errors.Is(err, reviewerrors.ErrDuplicateReview):
		writeReviewError(w, http.StatusConflict, "duplicate_review", err.Error())
	default:
		writeReviewError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireReviewUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeReviewError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireReviewUser(w, r)
	if !ok {
		return
	}
	var req reviewhttp.SubmitReviewRequest
	if !s.decodeJSON(w, r, &req, writeReviewError) {
		return
	}
	resp, err := s.reviews.Handler.SubmitReviewHandler(r.Context(), userID, req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reviews.Handler.GetReviewHandler(r.Context(), r.PathValue("review_id"))
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := reviewhttp.ReviewListRequest{SubjectID: r.PathValue("user_id")}
	if parsed, err := strconv.Atoi(strings.TrimSpace(query.Get("limit"))); err == nil {
		req.Limit = parsed
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(query.Get("offset"))); err == nil {
		req.Offset = parsed
	}
	resp, err := s.reviews.Handler.ListReviewsHandler(r.Context(), req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRatingSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reviews.Handler.RatingSummaryHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
