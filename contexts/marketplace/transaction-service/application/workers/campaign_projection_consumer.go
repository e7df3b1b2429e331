package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "tandem/contexts/marketplace/transaction-service/application"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/events"
	"tandem/internal/shared/lifecycle"
)

const (
	campaignCreatedTopic   = "campaign.created"
	campaignPublishedTopic = "campaign.published"
	campaignClosedTopic    = "campaign.closed"
	campaignConsumerGroup  = "transaction-campaign-projection-cg"
)

// CampaignProjectionConsumer keeps the local campaign snapshot current from
// campaign lifecycle events. The transaction service never reads the
// campaign store directly.
type CampaignProjectionConsumer struct {
	Subscriber    ports.EventSubscriber
	Campaigns     ports.CampaignDirectory
	ConsumerGroup string
	Logger        *slog.Logger
}

type campaignEventPayload struct {
	CampaignID   string  `json:"campaign_id"`
	BusinessID   string  `json:"business_id"`
	CampaignType string  `json:"campaign_type"`
	Slots        int     `json:"slots"`
	RewardAmount float64 `json:"reward_amount"`
	ToStatus     string  `json:"to_status"`
	Timeline     []struct {
		Step    string    `json:"step"`
		StartAt time.Time `json:"start_at"`
		EndAt   time.Time `json:"end_at"`
	} `json:"timeline"`
}

func (c CampaignProjectionConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = campaignConsumerGroup
	}
	for _, topic := range []string{campaignCreatedTopic, campaignPublishedTopic, campaignClosedTopic} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handleCampaignEvent); err != nil {
			return err
		}
	}
	return nil
}

func (c CampaignProjectionConsumer) handleCampaignEvent(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)

	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode campaign event payload: %w", err)
	}
	var payload campaignEventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode campaign event payload: %w", err)
	}
	if payload.CampaignID == "" {
		return fmt.Errorf("campaign event missing campaign_id")
	}

	snapshot, err := c.Campaigns.GetCampaignSnapshot(ctx, payload.CampaignID)
	if err != nil {
		snapshot = ports.CampaignSnapshot{CampaignID: payload.CampaignID}
	}
	if payload.BusinessID != "" {
		snapshot.BusinessID = payload.BusinessID
	}
	if payload.Slots > 0 {
		snapshot.Slots = payload.Slots
	}
	if payload.RewardAmount > 0 {
		snapshot.RewardAmount = payload.RewardAmount
	}
	if len(payload.Timeline) > 0 {
		windows := make([]lifecycle.Window, 0, len(payload.Timeline))
		hasBrainstorm := false
		for _, window := range payload.Timeline {
			step := lifecycle.Step(window.Step)
			if step == lifecycle.StepBrainstorming {
				hasBrainstorm = true
			}
			windows = append(windows, lifecycle.Window{
				Step:  step,
				Start: window.StartAt.UTC(),
				End:   window.EndAt.UTC(),
			})
		}
		snapshot.Timeline = windows
		snapshot.HasBrainstorming = hasBrainstorm
	}

	switch event.EventType {
	case campaignPublishedTopic:
		snapshot.Status = "published"
	case campaignClosedTopic:
		snapshot.Status = "closed"
	case campaignCreatedTopic:
		if snapshot.Status == "" {
			snapshot.Status = "draft"
		}
	default:
		if payload.ToStatus != "" {
			snapshot.Status = payload.ToStatus
		}
	}

	if err := c.Campaigns.PutCampaignSnapshot(ctx, snapshot); err != nil {
		logger.Error("campaign projection update failed",
			"event", "transaction_campaign_projection_failed",
			"module", "marketplace/transaction-service",
			"layer", "worker",
			"campaign_id", payload.CampaignID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("campaign projection updated",
		"event", "transaction_campaign_projection_updated",
		"module", "marketplace/transaction-service",
		"layer", "worker",
		"campaign_id", payload.CampaignID,
		"event_type", event.EventType,
		"status", snapshot.Status,
	)
	return nil
}
