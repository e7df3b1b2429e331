package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "tandem/contexts/marketplace/campaign-service/application"
	"tandem/contexts/marketplace/campaign-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/campaign-service/domain/errors"
	"tandem/contexts/marketplace/campaign-service/ports"
	"tandem/internal/shared/lifecycle"
)

type TimelineWindowInput struct {
	Step    string
	StartAt time.Time
	EndAt   time.Time
}

type CreateCampaignCommand struct {
	BusinessID     string
	IdempotencyKey string
	Title          string
	Brief          string
	Requirements   string
	CampaignType   string
	Slots          int
	RewardAmount   float64
	Timeline       []TimelineWindowInput
}

type CreateCampaignUseCase struct {
	Campaigns      ports.CampaignRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateCampaignResult struct {
	Campaign entities.Campaign
	Replayed bool
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (CreateCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateCampaignResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if strings.TrimSpace(cmd.BusinessID) == "" {
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashCreateCampaignCommand(cmd)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateCampaignResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateCampaignResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var replayed entities.Campaign
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return CreateCampaignResult{}, err
		}
		return CreateCampaignResult{Campaign: replayed, Replayed: true}, nil
	}

	campaignID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateCampaignResult{}, err
	}

	timeline := make([]entities.TimelineWindow, 0, len(cmd.Timeline))
	for _, window := range cmd.Timeline {
		timeline = append(timeline, entities.TimelineWindow{
			Step:    lifecycle.Step(strings.TrimSpace(window.Step)),
			StartAt: window.StartAt.UTC(),
			EndAt:   window.EndAt.UTC(),
		})
	}

	campaign := entities.Campaign{
		CampaignID:   campaignID,
		BusinessID:   strings.TrimSpace(cmd.BusinessID),
		Title:        strings.TrimSpace(cmd.Title),
		Brief:        strings.TrimSpace(cmd.Brief),
		Requirements: strings.TrimSpace(cmd.Requirements),
		CampaignType: entities.CampaignType(strings.TrimSpace(cmd.CampaignType)),
		Slots:        cmd.Slots,
		RewardAmount: cmd.RewardAmount,
		Timeline:     timeline,
		Status:       entities.CampaignStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !campaign.ValidateBasics() {
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}

	if err := uc.Campaigns.CreateCampaign(ctx, campaign); err != nil {
		return CreateCampaignResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return CreateCampaignResult{}, err
		}
		eventTimeline := make([]map[string]any, 0, len(campaign.Timeline))
		for _, window := range campaign.Timeline {
			eventTimeline = append(eventTimeline, map[string]any{
				"step":     string(window.Step),
				"start_at": window.StartAt.UTC(),
				"end_at":   window.EndAt.UTC(),
			})
		}
		if err := uc.Outbox.AppendOutbox(ctx, newCampaignEnvelope(
			eventID,
			"campaign.created",
			campaign.CampaignID,
			now,
			map[string]any{
				"campaign_id":   campaign.CampaignID,
				"business_id":   campaign.BusinessID,
				"campaign_type": string(campaign.CampaignType),
				"slots":         campaign.Slots,
				"reward_amount": campaign.RewardAmount,
				"timeline":      eventTimeline,
			},
		)); err != nil {
			return CreateCampaignResult{}, err
		}
	}

	payload, err := json.Marshal(campaign)
	if err != nil {
		return CreateCampaignResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(uc.idempotencyTTL()),
	}); err != nil {
		return CreateCampaignResult{}, err
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", "marketplace/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"business_id", campaign.BusinessID,
		"campaign_type", string(campaign.CampaignType),
	)
	return CreateCampaignResult{Campaign: campaign}, nil
}

func (uc CreateCampaignUseCase) idempotencyTTL() time.Duration {
	if uc.IdempotencyTTL > 0 {
		return uc.IdempotencyTTL
	}
	return 7 * 24 * time.Hour
}

func hashCreateCampaignCommand(cmd CreateCampaignCommand) string {
	windows := append([]TimelineWindowInput(nil), cmd.Timeline...)
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Step < windows[j].Step
	})
	parts := map[string]any{
		"business_id":   strings.TrimSpace(cmd.BusinessID),
		"title":         strings.TrimSpace(cmd.Title),
		"brief":         strings.TrimSpace(cmd.Brief),
		"requirements":  strings.TrimSpace(cmd.Requirements),
		"campaign_type": strings.TrimSpace(cmd.CampaignType),
		"slots":         cmd.Slots,
		"reward_amount": cmd.RewardAmount,
		"timeline":      windows,
	}
	raw, _ := json.Marshal(parts)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
