package commands

import (
	"context"
	"log/slog"
	"strings"

	application "tandem/contexts/marketplace/campaign-service/application"
	domainerrors "tandem/contexts/marketplace/campaign-service/domain/errors"
	"tandem/contexts/marketplace/campaign-service/ports"
)

// UpdateCampaignCommand edits draft-only fields. The timeline is fixed at
// creation and deliberately not editable here.
type UpdateCampaignCommand struct {
	CampaignID   string
	ActorID      string
	Title        string
	Brief        string
	Requirements string
	Slots        int
	RewardAmount float64
}

type UpdateCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc UpdateCampaignUseCase) Execute(ctx context.Context, cmd UpdateCampaignCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if strings.TrimSpace(cmd.ActorID) == "" || campaign.BusinessID != strings.TrimSpace(cmd.ActorID) {
		return domainerrors.ErrUnauthorizedActor
	}
	if !campaign.CanEdit() {
		return domainerrors.ErrInvalidStateTransition
	}

	campaign.Title = strings.TrimSpace(cmd.Title)
	campaign.Brief = strings.TrimSpace(cmd.Brief)
	campaign.Requirements = strings.TrimSpace(cmd.Requirements)
	campaign.Slots = cmd.Slots
	campaign.RewardAmount = cmd.RewardAmount
	if !campaign.ValidateBasics() {
		return domainerrors.ErrInvalidCampaignInput
	}
	campaign.UpdatedAt = uc.Clock.Now().UTC()

	if err := uc.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
		return err
	}

	logger.Info("campaign updated",
		"event", "campaign_updated",
		"module", "marketplace/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
	)
	return nil
}
