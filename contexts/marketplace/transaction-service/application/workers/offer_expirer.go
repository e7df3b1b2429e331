package workers

import (
	"context"
	"log/slog"
	"time"

	application "tandem/contexts/marketplace/transaction-service/application"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/events"
	"tandem/internal/shared/lifecycle"
)

// OfferExpirer reverts direct offers the creator never answered. An expired
// offer returns to not_registered and frees its campaign slot.
type OfferExpirer struct {
	Transactions ports.TransactionRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	BatchSize    int
	Disabled     bool
	Logger       *slog.Logger
}

func (e OfferExpirer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	if e.Disabled {
		return nil
	}

	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}
	limit := e.BatchSize
	if limit <= 0 {
		limit = 100
	}

	expired, err := e.Transactions.ListExpiredOffers(ctx, now, limit)
	if err != nil {
		logger.Error("transaction offer expiry list failed",
			"event", "transaction_offer_expiry_list_failed",
			"module", "marketplace/transaction-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, transaction := range expired {
		if transaction.Status != lifecycle.StatusOffering {
			continue
		}
		transaction.Status = lifecycle.StatusNotRegistered
		transaction.OfferExpiresAt = nil
		transaction.UpdatedAt = now
		if err := e.Transactions.UpdateTransaction(ctx, transaction); err != nil {
			logger.Error("transaction offer expiry update failed",
				"event", "transaction_offer_expiry_update_failed",
				"module", "marketplace/transaction-service",
				"layer", "worker",
				"transaction_id", transaction.TransactionID,
				"error", err.Error(),
			)
			return err
		}

		if e.Outbox != nil {
			eventID, err := e.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			if err := e.Outbox.AppendOutbox(ctx, events.Envelope{
				EventID:        eventID,
				EventType:      "transaction.offer_expired",
				SourceService:  "marketplace/transaction-service",
				OccurredAtUTC:  now,
				EntityType:     "transaction",
				EntityID:       transaction.TransactionID,
				PartitionKey:   transaction.TransactionID,
				PayloadVersion: 1,
				Payload: map[string]any{
					"transaction_id": transaction.TransactionID,
					"campaign_id":    transaction.CampaignID,
					"creator_id":     transaction.CreatorID,
				},
			}); err != nil {
				return err
			}
		}
	}

	if len(expired) > 0 {
		logger.Info("transaction offer expiry cycle completed",
			"event", "transaction_offer_expiry_cycle_completed",
			"module", "marketplace/transaction-service",
			"layer", "worker",
			"expired_count", len(expired),
		)
	}
	return nil
}
