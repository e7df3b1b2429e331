package httpserver

import (
	"errors"
	"net/http"
	"strings"

	campaignerrors "tandem/contexts/marketplace/campaign-service/domain/errors"
	campaignhttp "tandem/contexts/marketplace/campaign-service/transport/http"
)

func writeCampaignError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, campaignhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeCampaignDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaignerrors.ErrCampaignNotFound):
		writeCampaignError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, campaignerrors.ErrInvalidCampaignInput):
		writeCampaignError(w, http.StatusBadRequest, "invalid_campaign_input", err.Error())
	case errors.Is(err, campaignerrors.ErrInvalidStateTransition):
		writeCampaignError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, campaignerrors.ErrUnauthorizedActor):
		writeCampaignError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, campaignerrors.ErrIdempotencyKeyRequired):
		writeCampaignError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, campaignerrors.ErrIdempotencyKeyConflict):
		writeCampaignError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeCampaignError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireCampaignUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeCampaignError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCampaignUser(w, r)
	if !ok {
		return
	}
	var req campaignhttp.CreateCampaignRequest
	if !s.decodeJSON(w, r, &req, writeCampaignError) {
		return
	}
	resp, err := s.campaigns.Handler.CreateCampaignHandler(
		r.Context(),
		userID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCampaignUser(w, r)
	if !ok {
		return
	}
	var req campaignhttp.UpdateCampaignRequest
	if !s.decodeJSON(w, r, &req, writeCampaignError) {
		return
	}
	if err := s.campaigns.Handler.UpdateCampaignHandler(r.Context(), userID, r.PathValue("campaign_id"), req); err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublishCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCampaignUser(w, r)
	if !ok {
		return
	}
	var req campaignhttp.StatusActionRequest
	if !s.decodeJSON(w, r, &req, writeCampaignError) {
		return
	}
	if err := s.campaigns.Handler.PublishCampaignHandler(r.Context(), userID, r.PathValue("campaign_id"), req.Reason); err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCampaignUser(w, r)
	if !ok {
		return
	}
	var req campaignhttp.StatusActionRequest
	if !s.decodeJSON(w, r, &req, writeCampaignError) {
		return
	}
	if err := s.campaigns.Handler.CloseCampaignHandler(r.Context(), userID, r.PathValue("campaign_id"), req.Reason); err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.campaigns.Handler.ListCampaignsHandler(
		r.Context(),
		query.Get("business_id"),
		query.Get("status"),
		query.Get("campaign_type"),
	)
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	resp, err := s.campaigns.Handler.GetCampaignHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCampaignProgress(w http.ResponseWriter, r *http.Request) {
	resp, err := s.campaigns.Handler.CampaignProgressHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
