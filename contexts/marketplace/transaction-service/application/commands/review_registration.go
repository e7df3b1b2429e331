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

type RegistrationDecision string

const (
	RegistrationApprove RegistrationDecision = "approve"
	RegistrationReject  RegistrationDecision = "reject"
)

type ReviewRegistrationCommand struct {
	TransactionID string
	ActorID       string
	Decision      RegistrationDecision
	Note          string
}

type ReviewRegistrationUseCase struct {
	Transactions ports.TransactionRepository
	Campaigns    ports.CampaignDirectory
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (uc ReviewRegistrationUseCase) Execute(ctx context.Context, cmd ReviewRegistrationCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	transaction, err := uc.Transactions.GetTransaction(ctx, strings.TrimSpace(cmd.TransactionID))
	if err != nil {
		return err
	}
	if strings.TrimSpace(cmd.ActorID) == "" || transaction.BusinessID != strings.TrimSpace(cmd.ActorID) {
		return domainerrors.ErrUnauthorizedActor
	}

	var target lifecycle.Status
	switch cmd.Decision {
	case RegistrationApprove:
		target = lifecycle.StatusRegistrationApproved
	case RegistrationReject:
		target = lifecycle.StatusRegistrationRejected
	default:
		return domainerrors.ErrInvalidTransactionInput
	}

	campaign, err := uc.Campaigns.GetCampaignSnapshot(ctx, transaction.CampaignID)
	if err != nil {
		return err
	}
	machine, err := transaction.Machine()
	if err != nil {
		return err
	}
	machine, err = machine.Transition(target, campaign.HasBrainstorming)
	if err != nil {
		return domainerrors.ErrInvalidStateTransition
	}

	now := uc.Clock.Now().UTC()
	from := transaction.Status
	transaction.Status = machine.Status()
	transaction.UpdatedAt = now
	if err := uc.Transactions.UpdateTransaction(ctx, transaction); err != nil {
		return err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		eventType := "transaction.registration_approved"
		if cmd.Decision == RegistrationReject {
			eventType = "transaction.registration_rejected"
		}
		if err := uc.Outbox.AppendOutbox(ctx, newTransactionEnvelope(
			eventID,
			eventType,
			transaction.TransactionID,
			now,
			map[string]any{
				"transaction_id": transaction.TransactionID,
				"campaign_id":    transaction.CampaignID,
				"creator_id":     transaction.CreatorID,
				"from_status":    string(from),
				"to_status":      string(transaction.Status),
				"note":           strings.TrimSpace(cmd.Note),
			},
		)); err != nil {
			return err
		}
	}

	logger.Info("transaction registration reviewed",
		"event", "transaction_registration_reviewed",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
		"decision", string(cmd.Decision),
		"to_status", string(transaction.Status),
	)
	return nil
}
