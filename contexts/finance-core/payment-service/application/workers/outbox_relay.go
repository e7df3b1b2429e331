package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tandem/contexts/finance-core/payment-service/ports"
	contractsv1 "tandem/contracts/gen/events/v1"
	"tandem/internal/shared/events"
)

// OutboxRelay publishes pending payout outbox rows to the event bus. Rows
// carry the canonical contract envelope; the relay rewraps it for the
// shared bus shape.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := resolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("payout outbox list failed",
			"event", "payment_outbox_list_failed",
			"module", "finance-core/payment-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var envelope contractsv1.Envelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			logger.Error("payout outbox decode failed",
				"event", "payment_outbox_decode_failed",
				"module", "finance-core/payment-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}

		var data map[string]any
		if len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, &data); err != nil {
				logger.Error("payout outbox payload decode failed",
					"event", "payment_outbox_payload_decode_failed",
					"module", "finance-core/payment-service",
					"layer", "worker",
					"outbox_id", row.OutboxID,
					"error", err.Error(),
				)
				return err
			}
		}

		topic := envelope.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, events.Envelope{
			EventID:        envelope.EventID,
			EventType:      envelope.EventType,
			SourceService:  envelope.SourceService,
			OccurredAtUTC:  envelope.OccurredAt.UTC(),
			CorrelationID:  envelope.TraceID,
			EntityType:     "payout",
			EntityID:       envelope.PartitionKey,
			PartitionKey:   envelope.PartitionKey,
			PayloadVersion: envelope.SchemaVersion,
			Payload:        data,
		}); err != nil {
			logger.Error("payout outbox publish failed",
				"event", "payment_outbox_publish_failed",
				"module", "finance-core/payment-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", envelope.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("payout outbox mark published failed",
				"event", "payment_outbox_mark_published_failed",
				"module", "finance-core/payment-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("payout outbox relay cycle completed",
			"event", "payment_outbox_relay_completed",
			"module", "finance-core/payment-service",
			"layer", "worker",
			"published_count", len(pending),
		)
	}
	return nil
}
