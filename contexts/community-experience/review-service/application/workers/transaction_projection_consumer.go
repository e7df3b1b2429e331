package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tandem/contexts/community-experience/review-service/ports"
	"tandem/internal/shared/events"
	"tandem/internal/shared/lifecycle"
)

const (
	transactionCompletedTopic  = "transaction.completed"
	transactionTerminatedTopic = "transaction.terminated"
	reviewConsumerGroup        = "review-transaction-projection-cg"
)

// TransactionProjectionConsumer records which transactions reached a
// terminal state so review eligibility can be checked locally.
type TransactionProjectionConsumer struct {
	Subscriber    ports.EventSubscriber
	Transactions  ports.TransactionDirectory
	ConsumerGroup string
	Logger        *slog.Logger
}

type transactionEventPayload struct {
	TransactionID string `json:"transaction_id"`
	CampaignID    string `json:"campaign_id"`
	BusinessID    string `json:"business_id"`
	CreatorID     string `json:"creator_id"`
	ToStatus      string `json:"to_status"`
}

func (c TransactionProjectionConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = reviewConsumerGroup
	}
	for _, topic := range []string{transactionCompletedTopic, transactionTerminatedTopic} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handleTransactionEvent); err != nil {
			return err
		}
	}
	return nil
}

func (c TransactionProjectionConsumer) handleTransactionEvent(ctx context.Context, event events.Envelope) error {
	logger := resolveLogger(c.Logger)

	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode transaction event payload: %w", err)
	}
	var payload transactionEventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode transaction event payload: %w", err)
	}
	if payload.TransactionID == "" {
		return fmt.Errorf("transaction event missing transaction_id")
	}

	snapshot, err := c.Transactions.GetTransactionSnapshot(ctx, payload.TransactionID)
	if err != nil {
		snapshot = ports.TransactionSnapshot{TransactionID: payload.TransactionID}
	}
	if payload.CampaignID != "" {
		snapshot.CampaignID = payload.CampaignID
	}
	if payload.BusinessID != "" {
		snapshot.BusinessID = payload.BusinessID
	}
	if payload.CreatorID != "" {
		snapshot.CreatorID = payload.CreatorID
	}

	switch event.EventType {
	case transactionCompletedTopic:
		snapshot.Status = string(lifecycle.StatusCompleted)
		snapshot.CompletedAt = occurredAt(event)
	case transactionTerminatedTopic:
		snapshot.Status = string(lifecycle.StatusTerminated)
	default:
		if payload.ToStatus != "" {
			snapshot.Status = payload.ToStatus
		}
	}

	if err := c.Transactions.PutTransactionSnapshot(ctx, snapshot); err != nil {
		return err
	}

	logger.Debug("transaction snapshot projected",
		"event", "review_transaction_projected",
		"module", "community-experience/review-service",
		"layer", "worker",
		"transaction_id", snapshot.TransactionID,
		"status", snapshot.Status,
	)
	return nil
}

func occurredAt(event events.Envelope) time.Time {
	if !event.OccurredAtUTC.IsZero() {
		return event.OccurredAtUTC
	}
	return time.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
