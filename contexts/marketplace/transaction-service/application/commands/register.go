package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "tandem/contexts/marketplace/transaction-service/application"
	"tandem/contexts/marketplace/transaction-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/lifecycle"
)

type RegisterCommand struct {
	CampaignID     string
	CreatorID      string
	IdempotencyKey string
	Pitch          string
}

type RegisterUseCase struct {
	Transactions   ports.TransactionRepository
	Campaigns      ports.CampaignDirectory
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type RegisterResult struct {
	Transaction entities.Transaction
	Replayed    bool
}

// Execute applies a creator to a published campaign. Registration is only
// accepted while the registration window is open and free slots remain.
func (uc RegisterUseCase) Execute(ctx context.Context, cmd RegisterCommand) (RegisterResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return RegisterResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if strings.TrimSpace(cmd.CampaignID) == "" || strings.TrimSpace(cmd.CreatorID) == "" {
		return RegisterResult{}, domainerrors.ErrInvalidTransactionInput
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashRegisterCommand(cmd)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return RegisterResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return RegisterResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var replayed entities.Transaction
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return RegisterResult{}, err
		}
		return RegisterResult{Transaction: replayed, Replayed: true}, nil
	}

	campaign, err := uc.Campaigns.GetCampaignSnapshot(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return RegisterResult{}, err
	}
	if campaign.Status != "published" {
		return RegisterResult{}, domainerrors.ErrCampaignNotOpen
	}
	schedule := campaign.Schedule()
	if window, ok := schedule.ActiveWindow(now); !ok || window.Step != lifecycle.StepRegistration {
		return RegisterResult{}, domainerrors.ErrCampaignNotOpen
	}

	if existing, found, err := uc.Transactions.FindByCampaignAndCreator(ctx, campaign.CampaignID, strings.TrimSpace(cmd.CreatorID)); err != nil {
		return RegisterResult{}, err
	} else if found && existing.IsActive() {
		return RegisterResult{}, domainerrors.ErrDuplicateEngagement
	}

	active, err := uc.Transactions.CountActiveByCampaign(ctx, campaign.CampaignID)
	if err != nil {
		return RegisterResult{}, err
	}
	if campaign.Slots > 0 && active >= campaign.Slots {
		return RegisterResult{}, domainerrors.ErrCampaignFull
	}

	transactionID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return RegisterResult{}, err
	}
	transaction := entities.Transaction{
		TransactionID:      transactionID,
		CampaignID:         campaign.CampaignID,
		BusinessID:         campaign.BusinessID,
		CreatorID:          strings.TrimSpace(cmd.CreatorID),
		Status:             lifecycle.StatusRegistrationPending,
		RemainingRevisions: entities.DefaultRevisionBudget,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.Transactions.CreateTransaction(ctx, transaction); err != nil {
		return RegisterResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return RegisterResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, newTransactionEnvelope(
			eventID,
			"transaction.registered",
			transaction.TransactionID,
			now,
			map[string]any{
				"transaction_id": transaction.TransactionID,
				"campaign_id":    transaction.CampaignID,
				"creator_id":     transaction.CreatorID,
				"pitch":          strings.TrimSpace(cmd.Pitch),
			},
		)); err != nil {
			return RegisterResult{}, err
		}
	}

	payload, err := json.Marshal(transaction)
	if err != nil {
		return RegisterResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(uc.idempotencyTTL()),
	}); err != nil {
		return RegisterResult{}, err
	}

	logger.Info("transaction registered",
		"event", "transaction_registered",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
		"campaign_id", transaction.CampaignID,
		"creator_id", transaction.CreatorID,
	)
	return RegisterResult{Transaction: transaction}, nil
}

func (uc RegisterUseCase) idempotencyTTL() time.Duration {
	if uc.IdempotencyTTL > 0 {
		return uc.IdempotencyTTL
	}
	return 7 * 24 * time.Hour
}

func hashRegisterCommand(cmd RegisterCommand) string {
	raw, _ := json.Marshal(map[string]any{
		"campaign_id": strings.TrimSpace(cmd.CampaignID),
		"creator_id":  strings.TrimSpace(cmd.CreatorID),
		"pitch":       strings.TrimSpace(cmd.Pitch),
	})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
