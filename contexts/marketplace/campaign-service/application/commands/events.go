package commands

import (
	"time"

	"tandem/internal/shared/events"
)

func newCampaignEnvelope(
	eventID string,
	eventType string,
	campaignID string,
	occurredAt time.Time,
	payload map[string]any,
) events.Envelope {
	return events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  "marketplace/campaign-service",
		OccurredAtUTC:  occurredAt.UTC(),
		EntityType:     "campaign",
		EntityID:       campaignID,
		PartitionKey:   campaignID,
		PayloadVersion: 1,
		Payload:        payload,
	}
}
