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

type TerminateCommand struct {
	TransactionID string
	ActorID       string
	// Override marks a moderation-driven termination, which skips the owner
	// check.
	Override bool
	Reason   string
}

type TerminateUseCase struct {
	Transactions ports.TransactionRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// Execute terminates a live transaction. Terminated is reachable from any
// status except completed and terminated.
func (uc TerminateUseCase) Execute(ctx context.Context, cmd TerminateCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	transaction, err := uc.Transactions.GetTransaction(ctx, strings.TrimSpace(cmd.TransactionID))
	if err != nil {
		return err
	}
	if !cmd.Override {
		actor := strings.TrimSpace(cmd.ActorID)
		if actor == "" || (transaction.BusinessID != actor && transaction.CreatorID != actor) {
			return domainerrors.ErrUnauthorizedActor
		}
	}

	machine, err := transaction.Machine()
	if err != nil {
		return err
	}
	machine, err = machine.Transition(lifecycle.StatusTerminated, false)
	if err != nil {
		return domainerrors.ErrInvalidStateTransition
	}

	now := uc.Clock.Now().UTC()
	from := transaction.Status
	transaction.Status = machine.Status()
	transaction.TerminationReason = strings.TrimSpace(cmd.Reason)
	transaction.TerminatedAt = &now
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
			"transaction.terminated",
			transaction.TransactionID,
			now,
			map[string]any{
				"transaction_id": transaction.TransactionID,
				"campaign_id":    transaction.CampaignID,
				"creator_id":     transaction.CreatorID,
				"from_status":    string(from),
				"reason":         transaction.TerminationReason,
				"override":       cmd.Override,
			},
		)); err != nil {
			return err
		}
	}

	logger.Info("transaction terminated",
		"event", "transaction_terminated",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
		"from_status", string(from),
		"override", cmd.Override,
	)
	return nil
}
