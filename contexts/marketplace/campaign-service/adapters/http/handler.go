package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tandem/contexts/marketplace/campaign-service/application/commands"
	"tandem/contexts/marketplace/campaign-service/application/queries"
	"tandem/contexts/marketplace/campaign-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/campaign-service/domain/errors"
	httptransport "tandem/contexts/marketplace/campaign-service/transport/http"
	"tandem/internal/shared/lifecycle"
)

type Handler struct {
	CreateCampaign commands.CreateCampaignUseCase
	UpdateCampaign commands.UpdateCampaignUseCase
	ChangeStatus   commands.ChangeStatusUseCase
	Queries        queries.QueryUseCase
	Logger         *slog.Logger
}

func (h Handler) CreateCampaignHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.CreateCampaignRequest,
) (httptransport.CreateCampaignResponse, error) {
	timeline, err := parseTimeline(req.Timeline)
	if err != nil {
		return httptransport.CreateCampaignResponse{}, domainerrors.ErrInvalidCampaignInput
	}
	result, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		BusinessID:     userID,
		IdempotencyKey: idempotencyKey,
		Title:          req.Title,
		Brief:          req.Brief,
		Requirements:   req.Requirements,
		CampaignType:   req.CampaignType,
		Slots:          req.Slots,
		RewardAmount:   req.RewardAmount,
		Timeline:       timeline,
	})
	if err != nil {
		return httptransport.CreateCampaignResponse{}, err
	}
	return httptransport.CreateCampaignResponse{
		Campaign: mapCampaign(result.Campaign),
		Replayed: result.Replayed,
	}, nil
}

func (h Handler) UpdateCampaignHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	req httptransport.UpdateCampaignRequest,
) error {
	return h.UpdateCampaign.Execute(ctx, commands.UpdateCampaignCommand{
		CampaignID:   campaignID,
		ActorID:      userID,
		Title:        req.Title,
		Brief:        req.Brief,
		Requirements: req.Requirements,
		Slots:        req.Slots,
		RewardAmount: req.RewardAmount,
	})
}

func (h Handler) PublishCampaignHandler(ctx context.Context, userID string, campaignID string, reason string) error {
	return h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
		CampaignID: campaignID,
		ActorID:    userID,
		Action:     commands.StatusActionPublish,
		Reason:     reason,
	})
}

func (h Handler) CloseCampaignHandler(ctx context.Context, userID string, campaignID string, reason string) error {
	return h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
		CampaignID: campaignID,
		ActorID:    userID,
		Action:     commands.StatusActionClose,
		Reason:     reason,
	})
}

func (h Handler) ListCampaignsHandler(
	ctx context.Context,
	businessID string,
	status string,
	campaignType string,
) (httptransport.ListCampaignsResponse, error) {
	items, err := h.Queries.ListCampaigns(ctx, queries.ListCampaignsQuery{
		BusinessID:   businessID,
		Status:       status,
		CampaignType: campaignType,
	})
	if err != nil {
		return httptransport.ListCampaignsResponse{}, err
	}
	result := make([]httptransport.CampaignDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapCampaign(item))
	}
	return httptransport.ListCampaignsResponse{Items: result}, nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (httptransport.GetCampaignResponse, error) {
	item, err := h.Queries.GetCampaign(ctx, campaignID)
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	return httptransport.GetCampaignResponse{Campaign: mapCampaign(item)}, nil
}

func (h Handler) CampaignProgressHandler(ctx context.Context, campaignID string) (httptransport.CampaignProgressResponse, error) {
	progress, err := h.Queries.CampaignProgress(ctx, campaignID)
	if err != nil {
		return httptransport.CampaignProgressResponse{}, err
	}
	stepper := make([]string, 0, len(progress.Stepper))
	for _, state := range progress.Stepper {
		stepper = append(stepper, string(state))
	}
	result := httptransport.CampaignProgressResponse{
		CampaignID: progress.CampaignID,
		Stepper:    stepper,
	}
	if progress.HasActive {
		result.ActiveStep = string(progress.ActiveStep)
	}
	return result, nil
}

func mapCampaign(item entities.Campaign) httptransport.CampaignDTO {
	timeline := make([]httptransport.TimelineWindowDTO, 0, len(item.Timeline))
	for _, window := range item.Timeline {
		timeline = append(timeline, httptransport.TimelineWindowDTO{
			Step:    string(window.Step),
			StartAt: window.StartAt.UTC().Format(time.RFC3339),
			EndAt:   window.EndAt.UTC().Format(time.RFC3339),
		})
	}
	result := httptransport.CampaignDTO{
		CampaignID:   item.CampaignID,
		BusinessID:   item.BusinessID,
		Title:        item.Title,
		Brief:        item.Brief,
		Requirements: item.Requirements,
		CampaignType: string(item.CampaignType),
		Slots:        item.Slots,
		RewardAmount: item.RewardAmount,
		Timeline:     timeline,
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.Format(time.RFC3339),
	}
	if item.PublishedAt != nil {
		result.PublishedAt = item.PublishedAt.UTC().Format(time.RFC3339)
	}
	if item.ClosedAt != nil {
		result.ClosedAt = item.ClosedAt.UTC().Format(time.RFC3339)
	}
	return result
}

func parseTimeline(raw []httptransport.TimelineWindowDTO) ([]commands.TimelineWindowInput, error) {
	timeline := make([]commands.TimelineWindowInput, 0, len(raw))
	for _, window := range raw {
		start, err := parseTimestamp(window.StartAt)
		if err != nil {
			return nil, err
		}
		end, err := parseTimestamp(window.EndAt)
		if err != nil {
			return nil, err
		}
		step := lifecycle.Step(strings.TrimSpace(window.Step))
		if !lifecycle.IsValidStep(step) {
			return nil, fmt.Errorf("unknown timeline step %q", window.Step)
		}
		timeline = append(timeline, commands.TimelineWindowInput{
			Step:    string(step),
			StartAt: start,
			EndAt:   end,
		})
	}
	return timeline, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return parsed.UTC(), nil
}
