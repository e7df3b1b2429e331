package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tandem/contexts/marketplace/campaign-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/campaign-service/domain/errors"
	"tandem/contexts/marketplace/campaign-service/ports"
	"tandem/internal/shared/lifecycle"
)

type QueryUseCase struct {
	Campaigns ports.CampaignRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (q QueryUseCase) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	if strings.TrimSpace(campaignID) == "" {
		return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
	}
	return q.Campaigns.GetCampaign(ctx, campaignID)
}

type ListCampaignsQuery struct {
	BusinessID   string
	Status       string
	CampaignType string
}

func (q QueryUseCase) ListCampaigns(ctx context.Context, query ListCampaignsQuery) ([]entities.Campaign, error) {
	return q.Campaigns.ListCampaigns(ctx, ports.CampaignFilter{
		BusinessID:   strings.TrimSpace(query.BusinessID),
		Status:       entities.CampaignStatus(strings.TrimSpace(query.Status)),
		CampaignType: entities.CampaignType(strings.TrimSpace(query.CampaignType)),
	})
}

type CampaignProgress struct {
	CampaignID string
	ActiveStep lifecycle.Step
	HasActive  bool
	Stepper    []lifecycle.StepperState
}

// CampaignProgress computes the owner stepper: calendar-driven progress of
// the campaign as a whole, independent of any single creator's transaction.
func (q QueryUseCase) CampaignProgress(ctx context.Context, campaignID string) (CampaignProgress, error) {
	campaign, err := q.Campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return CampaignProgress{}, err
	}

	now := q.now()
	schedule := campaign.Schedule()
	if err := schedule.CheckAmbiguity(now); errors.Is(err, lifecycle.ErrAmbiguousActiveWindow) {
		q.logger().Warn("campaign timeline windows overlap",
			"event", "campaign_timeline_overlap",
			"module", "marketplace/campaign-service",
			"layer", "application",
			"campaign_id", campaign.CampaignID,
			"active_window_count", schedule.ActiveWindowCount(now),
		)
	}

	// The owner projection ignores transaction state; any valid status works.
	stepper, err := lifecycle.Project(schedule, lifecycle.StatusNotRegistered, lifecycle.RoleBusinessPeople, now)
	if err != nil {
		return CampaignProgress{}, err
	}

	progress := CampaignProgress{
		CampaignID: campaign.CampaignID,
		Stepper:    stepper,
	}
	if window, ok := schedule.ActiveWindow(now); ok {
		progress.ActiveStep = window.Step
		progress.HasActive = true
	}
	return progress, nil
}

func (q QueryUseCase) now() time.Time {
	if q.Clock != nil {
		return q.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (q QueryUseCase) logger() *slog.Logger {
	if q.Logger != nil {
		return q.Logger
	}
	return slog.Default()
}
