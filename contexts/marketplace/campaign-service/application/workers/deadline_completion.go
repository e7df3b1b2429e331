package workers

import (
	"context"
	"log/slog"
	"time"

	application "tandem/contexts/marketplace/campaign-service/application"
	"tandem/contexts/marketplace/campaign-service/domain/entities"
	"tandem/contexts/marketplace/campaign-service/ports"
	"tandem/internal/shared/events"
)

// DeadlineCompletionJob closes published campaigns whose final timeline
// window has ended.
type DeadlineCompletionJob struct {
	Campaigns ports.CampaignRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Disabled  bool
	Logger    *slog.Logger
}

func (j DeadlineCompletionJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		return nil
	}

	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	items, err := j.Campaigns.ListPublishedPastEnd(ctx, now, limit)
	if err != nil {
		logger.Error("campaign deadline list failed",
			"event", "campaign_deadline_list_failed",
			"module", "marketplace/campaign-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, campaign := range items {
		campaign.Status = entities.CampaignStatusClosed
		campaign.ClosedAt = &now
		campaign.UpdatedAt = now
		if err := j.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
			logger.Error("campaign deadline close failed",
				"event", "campaign_deadline_close_failed",
				"module", "marketplace/campaign-service",
				"layer", "worker",
				"campaign_id", campaign.CampaignID,
				"error", err.Error(),
			)
			return err
		}

		if j.Outbox != nil {
			eventID, err := j.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			if err := j.Outbox.AppendOutbox(ctx, events.Envelope{
				EventID:        eventID,
				EventType:      "campaign.closed",
				SourceService:  "marketplace/campaign-service",
				OccurredAtUTC:  now,
				EntityType:     "campaign",
				EntityID:       campaign.CampaignID,
				PartitionKey:   campaign.CampaignID,
				PayloadVersion: 1,
				Payload: map[string]any{
					"campaign_id": campaign.CampaignID,
					"business_id": campaign.BusinessID,
					"reason":      "deadline_reached",
				},
			}); err != nil {
				return err
			}
		}
	}

	if len(items) > 0 {
		logger.Info("campaign deadline completion cycle completed",
			"event", "campaign_deadline_cycle_completed",
			"module", "marketplace/campaign-service",
			"layer", "worker",
			"closed_count", len(items),
		)
	}
	return nil
}
