package commands

import (
	"context"
	"log/slog"
	"strings"

	application "tandem/contexts/marketplace/transaction-service/application"
	domainerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/lifecycle"
)

type WithdrawPayoutCommand struct {
	TransactionID string
	ActorID       string
}

type WithdrawPayoutUseCase struct {
	Transactions ports.TransactionRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// Execute marks the actor's payout as withdrawn. Only completed transactions
// with an approved, not yet withdrawn payout qualify; the actual money
// movement is handled by the payment service off the emitted event.
func (uc WithdrawPayoutUseCase) Execute(ctx context.Context, cmd WithdrawPayoutCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	transaction, err := uc.Transactions.GetTransaction(ctx, strings.TrimSpace(cmd.TransactionID))
	if err != nil {
		return err
	}

	actor := strings.TrimSpace(cmd.ActorID)
	var role lifecycle.Role
	switch actor {
	case "":
		return domainerrors.ErrUnauthorizedActor
	case transaction.BusinessID:
		role = lifecycle.RoleBusinessPeople
	case transaction.CreatorID:
		role = lifecycle.RoleContentCreator
	default:
		return domainerrors.ErrUnauthorizedActor
	}

	machine, err := transaction.Machine()
	if err != nil {
		return err
	}
	if !machine.IsWithdrawable(role, transaction.Payouts) {
		return domainerrors.ErrPayoutNotWithdrawable
	}

	now := uc.Clock.Now().UTC()
	if role == lifecycle.RoleBusinessPeople {
		transaction.Payouts.BusinessPeople.Withdrawn = true
	} else {
		transaction.Payouts.ContentCreator.Withdrawn = true
	}
	transaction.UpdatedAt = now
	if err := uc.Transactions.UpdateTransaction(ctx, transaction); err != nil {
		return err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		if err := uc.Outbox.AppendOutbox(ctx, newTransactionEnvelope(
			eventID,
			"transaction.payout_withdrawn",
			transaction.TransactionID,
			now,
			map[string]any{
				"transaction_id": transaction.TransactionID,
				"campaign_id":    transaction.CampaignID,
				"actor_id":       actor,
				"role":           string(role),
			},
		)); err != nil {
			return err
		}
	}

	logger.Info("transaction payout withdrawn",
		"event", "transaction_payout_withdrawn",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
		"role", string(role),
	)
	return nil
}
