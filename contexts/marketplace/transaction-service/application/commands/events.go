package commands

import (
	"time"

	"tandem/internal/shared/events"
)

func newTransactionEnvelope(eventID, eventType, transactionID string, occurredAt time.Time, payload map[string]any) events.Envelope {
	return events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  "marketplace/transaction-service",
		OccurredAtUTC:  occurredAt.UTC(),
		EntityType:     "transaction",
		EntityID:       transactionID,
		PartitionKey:   transactionID,
		PayloadVersion: 1,
		Payload:        payload,
	}
}
