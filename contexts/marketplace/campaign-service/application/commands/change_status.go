package commands

import (
	"context"
	"log/slog"
	"strings"

	application "tandem/contexts/marketplace/campaign-service/application"
	"tandem/contexts/marketplace/campaign-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/campaign-service/domain/errors"
	"tandem/contexts/marketplace/campaign-service/ports"
)

type ChangeStatusAction string

const (
	StatusActionPublish ChangeStatusAction = "publish"
	StatusActionClose   ChangeStatusAction = "close"
)

type ChangeStatusCommand struct {
	CampaignID string
	ActorID    string
	Action     ChangeStatusAction
	Reason     string
}

type ChangeStatusUseCase struct {
	Campaigns   ports.CampaignRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (uc ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if strings.TrimSpace(cmd.ActorID) == "" || campaign.BusinessID != strings.TrimSpace(cmd.ActorID) {
		return domainerrors.ErrUnauthorizedActor
	}

	now := uc.Clock.Now().UTC()
	from := campaign.Status
	to := from
	switch cmd.Action {
	case StatusActionPublish:
		if campaign.Status != entities.CampaignStatusDraft {
			return domainerrors.ErrInvalidStateTransition
		}
		if !campaign.ValidateBasics() {
			return domainerrors.ErrInvalidCampaignInput
		}
		to = entities.CampaignStatusPublished
		campaign.PublishedAt = &now
	case StatusActionClose:
		if campaign.Status != entities.CampaignStatusPublished {
			return domainerrors.ErrInvalidStateTransition
		}
		to = entities.CampaignStatusClosed
		campaign.ClosedAt = &now
	default:
		return domainerrors.ErrInvalidStateTransition
	}

	campaign.Status = to
	campaign.UpdatedAt = now
	if err := uc.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
		return err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		if err := uc.Outbox.AppendOutbox(ctx, newCampaignEnvelope(
			eventID,
			"campaign."+string(cmd.Action)+"ed",
			campaign.CampaignID,
			now,
			map[string]any{
				"campaign_id": campaign.CampaignID,
				"business_id": campaign.BusinessID,
				"from_status": string(from),
				"to_status":   string(to),
				"reason":      strings.TrimSpace(cmd.Reason),
			},
		)); err != nil {
			return err
		}
	}

	logger.Info("campaign state changed",
		"event", "campaign_state_changed",
		"module", "marketplace/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"from_status", string(from),
		"to_status", string(to),
	)
	return nil
}
