package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tandem/contexts/finance-core/payment-service/application"
	domainerrors "tandem/contexts/finance-core/payment-service/domain/errors"
	"tandem/contexts/finance-core/payment-service/ports"
	"tandem/internal/shared/events"
	"tandem/internal/shared/lifecycle"
)

const (
	transactionCompletedTopic = "transaction.completed"
	payoutWithdrawnTopic      = "transaction.payout_withdrawn"
	payoutConsumerGroup       = "payment-payout-cg"
)

// PayoutConsumer books creator payouts from the marketplace's transaction
// events. Completion opens a payout, withdrawal settles it.
type PayoutConsumer struct {
	Subscriber    ports.EventSubscriber
	Service       application.Service
	ConsumerGroup string
	Logger        *slog.Logger
}

type transactionCompletedPayload struct {
	TransactionID string  `json:"transaction_id"`
	CampaignID    string  `json:"campaign_id"`
	CreatorID     string  `json:"creator_id"`
	RewardAmount  float64 `json:"reward_amount"`
}

type payoutWithdrawnPayload struct {
	TransactionID string `json:"transaction_id"`
	ActorID       string `json:"actor_id"`
	Role          string `json:"role"`
}

func (c PayoutConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = payoutConsumerGroup
	}
	if err := c.Subscriber.Subscribe(ctx, transactionCompletedTopic, group, c.handleCompleted); err != nil {
		return err
	}
	return c.Subscriber.Subscribe(ctx, payoutWithdrawnTopic, group, c.handleWithdrawn)
}

func (c PayoutConsumer) handleCompleted(ctx context.Context, event events.Envelope) error {
	logger := resolveLogger(c.Logger)

	var payload transactionCompletedPayload
	if err := decodePayload(event.Payload, &payload); err != nil {
		return err
	}

	completedAt := event.OccurredAtUTC
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	payout, replayed, err := c.Service.ConsumeTransactionCompletedEvent(ctx, event.EventID, ports.TransactionCompletedEvent{
		TransactionID: payload.TransactionID,
		CampaignID:    payload.CampaignID,
		CreatorID:     payload.CreatorID,
		RewardAmount:  payload.RewardAmount,
		CompletedAt:   completedAt,
	})
	if err != nil {
		logger.Error("payout booking failed",
			"event", "payment_payout_booking_failed",
			"module", "finance-core/payment-service",
			"layer", "worker",
			"event_id", event.EventID,
			"transaction_id", payload.TransactionID,
			"error", err.Error(),
		)
		return err
	}
	if replayed {
		return nil
	}

	logger.Info("payout booked from transaction completion",
		"event", "payment_payout_booked",
		"module", "finance-core/payment-service",
		"layer", "worker",
		"payout_id", payout.PayoutID,
		"transaction_id", payout.TransactionID,
	)
	return nil
}

func (c PayoutConsumer) handleWithdrawn(ctx context.Context, event events.Envelope) error {
	logger := resolveLogger(c.Logger)

	var payload payoutWithdrawnPayload
	if err := decodePayload(event.Payload, &payload); err != nil {
		return err
	}
	// Business withdrawals stay in the marketplace; this ledger only
	// tracks creator payouts.
	if payload.Role != string(lifecycle.RoleContentCreator) {
		return nil
	}

	payout, err := c.Service.MarkWithdrawn(ctx, payload.TransactionID, payload.ActorID)
	if err != nil {
		// Redeliveries after a successful settlement are expected.
		if errors.Is(err, domainerrors.ErrPayoutAlreadyWithdrawn) {
			return nil
		}
		logger.Error("payout settlement failed",
			"event", "payment_payout_settlement_failed",
			"module", "finance-core/payment-service",
			"layer", "worker",
			"event_id", event.EventID,
			"transaction_id", payload.TransactionID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("payout settled from withdrawal",
		"event", "payment_payout_settled",
		"module", "finance-core/payment-service",
		"layer", "worker",
		"payout_id", payout.PayoutID,
		"transaction_id", payout.TransactionID,
	)
	return nil
}

func decodePayload(payload any, target any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode transaction event payload: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode transaction event payload: %w", err)
	}
	return nil
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
