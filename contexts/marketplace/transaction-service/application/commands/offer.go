package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "tandem/contexts/marketplace/transaction-service/application"
	"tandem/contexts/marketplace/transaction-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/lifecycle"
)

// DefaultOfferTTL bounds how long a direct offer stays open before the
// expirer reverts it.
const DefaultOfferTTL = 72 * time.Hour

type SendOfferCommand struct {
	CampaignID string
	ActorID    string
	CreatorID  string
	Message    string
}

type SendOfferUseCase struct {
	Transactions ports.TransactionRepository
	Campaigns    ports.CampaignDirectory
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	OfferTTL     time.Duration
	Logger       *slog.Logger
}

type SendOfferResult struct {
	Transaction entities.Transaction
}

// Execute lets a sponsor invite a specific creator directly, bypassing open
// registration. The offer occupies a slot until it is declined or expires.
func (uc SendOfferUseCase) Execute(ctx context.Context, cmd SendOfferCommand) (SendOfferResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.CampaignID) == "" || strings.TrimSpace(cmd.CreatorID) == "" {
		return SendOfferResult{}, domainerrors.ErrInvalidTransactionInput
	}

	campaign, err := uc.Campaigns.GetCampaignSnapshot(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return SendOfferResult{}, err
	}
	if strings.TrimSpace(cmd.ActorID) == "" || campaign.BusinessID != strings.TrimSpace(cmd.ActorID) {
		return SendOfferResult{}, domainerrors.ErrUnauthorizedActor
	}
	if campaign.Status != "published" {
		return SendOfferResult{}, domainerrors.ErrCampaignNotOpen
	}

	if existing, found, err := uc.Transactions.FindByCampaignAndCreator(ctx, campaign.CampaignID, strings.TrimSpace(cmd.CreatorID)); err != nil {
		return SendOfferResult{}, err
	} else if found && existing.IsActive() {
		return SendOfferResult{}, domainerrors.ErrDuplicateEngagement
	}

	active, err := uc.Transactions.CountActiveByCampaign(ctx, campaign.CampaignID)
	if err != nil {
		return SendOfferResult{}, err
	}
	if campaign.Slots > 0 && active >= campaign.Slots {
		return SendOfferResult{}, domainerrors.ErrCampaignFull
	}

	now := uc.Clock.Now().UTC()
	expiresAt := now.Add(uc.offerTTL())
	transactionID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return SendOfferResult{}, err
	}
	transaction := entities.Transaction{
		TransactionID:      transactionID,
		CampaignID:         campaign.CampaignID,
		BusinessID:         campaign.BusinessID,
		CreatorID:          strings.TrimSpace(cmd.CreatorID),
		Status:             lifecycle.StatusOffering,
		RemainingRevisions: entities.DefaultRevisionBudget,
		OfferExpiresAt:     &expiresAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.Transactions.CreateTransaction(ctx, transaction); err != nil {
		return SendOfferResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return SendOfferResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, newTransactionEnvelope(
			eventID,
			"transaction.offer_sent",
			transaction.TransactionID,
			now,
			map[string]any{
				"transaction_id": transaction.TransactionID,
				"campaign_id":    transaction.CampaignID,
				"creator_id":     transaction.CreatorID,
				"message":        strings.TrimSpace(cmd.Message),
				"expires_at":     expiresAt.Format(time.RFC3339),
			},
		)); err != nil {
			return SendOfferResult{}, err
		}
	}

	logger.Info("transaction offer sent",
		"event", "transaction_offer_sent",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
		"campaign_id", transaction.CampaignID,
		"creator_id", transaction.CreatorID,
	)
	return SendOfferResult{Transaction: transaction}, nil
}

func (uc SendOfferUseCase) offerTTL() time.Duration {
	if uc.OfferTTL > 0 {
		return uc.OfferTTL
	}
	return DefaultOfferTTL
}

type OfferDecision string

const (
	OfferAccept  OfferDecision = "accept"
	OfferDecline OfferDecision = "decline"
)

type RespondOfferCommand struct {
	TransactionID string
	ActorID       string
	Decision      OfferDecision
}

type RespondOfferUseCase struct {
	Transactions ports.TransactionRepository
	Campaigns    ports.CampaignDirectory
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// Execute records the creator's answer to a direct offer. Acceptance moves
// the transaction to await the sponsor's escrow payment; a decline releases
// the slot.
func (uc RespondOfferUseCase) Execute(ctx context.Context, cmd RespondOfferCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	transaction, err := uc.Transactions.GetTransaction(ctx, strings.TrimSpace(cmd.TransactionID))
	if err != nil {
		return err
	}
	if strings.TrimSpace(cmd.ActorID) == "" || transaction.CreatorID != strings.TrimSpace(cmd.ActorID) {
		return domainerrors.ErrUnauthorizedActor
	}

	now := uc.Clock.Now().UTC()
	if transaction.OfferExpiresAt != nil && now.After(transaction.OfferExpiresAt.UTC()) {
		return domainerrors.ErrOfferExpired
	}

	var target lifecycle.Status
	switch cmd.Decision {
	case OfferAccept:
		target = lifecycle.StatusOfferWaitingForPayment
	case OfferDecline:
		target = lifecycle.StatusNotRegistered
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

	from := transaction.Status
	transaction.Status = machine.Status()
	transaction.UpdatedAt = now
	if cmd.Decision == OfferDecline {
		transaction.OfferExpiresAt = nil
	}
	if err := uc.Transactions.UpdateTransaction(ctx, transaction); err != nil {
		return err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		eventType := "transaction.offer_accepted"
		if cmd.Decision == OfferDecline {
			eventType = "transaction.offer_declined"
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
			},
		)); err != nil {
			return err
		}
	}

	logger.Info("transaction offer answered",
		"event", "transaction_offer_answered",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
		"decision", string(cmd.Decision),
	)
	return nil
}

type ConfirmOfferPaymentCommand struct {
	TransactionID string
	ActorID       string
	PaymentRef    string
}

type ConfirmOfferPaymentUseCase struct {
	Transactions ports.TransactionRepository
	Campaigns    ports.CampaignDirectory
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// Execute confirms the sponsor funded the accepted offer, which admits the
// creator as if their registration had been approved.
func (uc ConfirmOfferPaymentUseCase) Execute(ctx context.Context, cmd ConfirmOfferPaymentCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	transaction, err := uc.Transactions.GetTransaction(ctx, strings.TrimSpace(cmd.TransactionID))
	if err != nil {
		return err
	}
	if strings.TrimSpace(cmd.ActorID) == "" || transaction.BusinessID != strings.TrimSpace(cmd.ActorID) {
		return domainerrors.ErrUnauthorizedActor
	}

	campaign, err := uc.Campaigns.GetCampaignSnapshot(ctx, transaction.CampaignID)
	if err != nil {
		return err
	}
	machine, err := transaction.Machine()
	if err != nil {
		return err
	}
	machine, err = machine.Transition(lifecycle.StatusRegistrationApproved, campaign.HasBrainstorming)
	if err != nil {
		return domainerrors.ErrInvalidStateTransition
	}

	now := uc.Clock.Now().UTC()
	transaction.Status = machine.Status()
	transaction.OfferExpiresAt = nil
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
			"transaction.offer_payment_confirmed",
			transaction.TransactionID,
			now,
			map[string]any{
				"transaction_id": transaction.TransactionID,
				"campaign_id":    transaction.CampaignID,
				"creator_id":     transaction.CreatorID,
				"payment_ref":    strings.TrimSpace(cmd.PaymentRef),
			},
		)); err != nil {
			return err
		}
	}

	logger.Info("transaction offer payment confirmed",
		"event", "transaction_offer_payment_confirmed",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
	)
	return nil
}
