package commands

import (
	"context"
	"log/slog"
	"strings"

	application "tandem/contexts/marketplace/transaction-service/application"
	"tandem/contexts/marketplace/transaction-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/lifecycle"
)

type PhaseDecision string

const (
	PhaseApprove PhaseDecision = "approve"
	PhaseReject  PhaseDecision = "reject"
)

type ReviewPhaseCommand struct {
	TransactionID string
	ActorID       string
	Step          string
	Decision      PhaseDecision
	RejectionType string
	Note          string
}

type ReviewPhaseUseCase struct {
	Transactions ports.TransactionRepository
	Campaigns    ports.CampaignDirectory
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// Execute records the sponsor's verdict on the pending submission of a phase.
// Approving the result submission completes the transaction and unlocks both
// payouts. Mismatch rejections of content or result consume one revision;
// unreachable-link rejections never do.
func (uc ReviewPhaseUseCase) Execute(ctx context.Context, cmd ReviewPhaseCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	step := lifecycle.Step(strings.TrimSpace(cmd.Step))
	if !entities.IsSubmittableStep(step) {
		return domainerrors.ErrInvalidTransactionInput
	}

	transaction, err := uc.Transactions.GetTransaction(ctx, strings.TrimSpace(cmd.TransactionID))
	if err != nil {
		return err
	}
	if strings.TrimSpace(cmd.ActorID) == "" || transaction.BusinessID != strings.TrimSpace(cmd.ActorID) {
		return domainerrors.ErrUnauthorizedActor
	}

	submission, found := transaction.PendingSubmission(step)
	if !found {
		return domainerrors.ErrSubmissionNotFound
	}

	campaign, err := uc.Campaigns.GetCampaignSnapshot(ctx, transaction.CampaignID)
	if err != nil {
		return err
	}
	machine, err := transaction.Machine()
	if err != nil {
		return err
	}

	now := uc.Clock.Now().UTC()
	from := transaction.Status
	eventType := ""

	switch cmd.Decision {
	case PhaseApprove:
		switch step {
		case lifecycle.StepBrainstorming:
			machine, err = machine.Transition(lifecycle.StatusBrainstormApproved, campaign.HasBrainstorming)
			if err != nil {
				return domainerrors.ErrInvalidStateTransition
			}
		case lifecycle.StepContentCreation:
			// Content approval opens the result phase without moving the
			// status machine.
			if machine.Status() != lifecycle.StatusContentSubmitted {
				return domainerrors.ErrInvalidStateTransition
			}
		case lifecycle.StepResultSubmission:
			machine, err = machine.Transition(lifecycle.StatusCompleted, campaign.HasBrainstorming)
			if err != nil {
				return domainerrors.ErrInvalidStateTransition
			}
			transaction.CompletedAt = &now
			transaction.Payouts.BusinessPeople.Approved = true
			transaction.Payouts.ContentCreator.Approved = true
		}
		eventType = "transaction.phase_approved"
	case PhaseReject:
		switch step {
		case lifecycle.StepBrainstorming:
			machine, err = machine.Transition(lifecycle.StatusRegistrationApproved, campaign.HasBrainstorming)
			if err != nil {
				return domainerrors.ErrInvalidStateTransition
			}
		case lifecycle.StepContentCreation, lifecycle.StepResultSubmission:
			rejection := lifecycle.RejectionType(strings.TrimSpace(cmd.RejectionType))
			if err := lifecycle.CanRejectContent(rejection, transaction.RemainingRevisions); err != nil {
				return err
			}
			if machine.Status() != lifecycle.StatusContentSubmitted {
				return domainerrors.ErrInvalidStateTransition
			}
			if rejection == lifecycle.RejectionMismatch {
				transaction.RemainingRevisions--
			}
		}
		eventType = "transaction.phase_rejected"
	default:
		return domainerrors.ErrInvalidTransactionInput
	}

	for i := range transaction.Submissions {
		if transaction.Submissions[i].SubmissionID != submission.SubmissionID {
			continue
		}
		reviewedAt := now
		transaction.Submissions[i].ReviewedAt = &reviewedAt
		transaction.Submissions[i].ReviewNote = strings.TrimSpace(cmd.Note)
		if cmd.Decision == PhaseApprove {
			transaction.Submissions[i].Status = entities.SubmissionApproved
		} else {
			transaction.Submissions[i].Status = entities.SubmissionRejected
			transaction.Submissions[i].RejectionType = lifecycle.RejectionType(strings.TrimSpace(cmd.RejectionType))
		}
		break
	}

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
		if err := uc.Outbox.AppendOutbox(ctx, newTransactionEnvelope(
			eventID,
			eventType,
			transaction.TransactionID,
			now,
			map[string]any{
				"transaction_id":      transaction.TransactionID,
				"campaign_id":         transaction.CampaignID,
				"creator_id":          transaction.CreatorID,
				"submission_id":       submission.SubmissionID,
				"step":                string(step),
				"from_status":         string(from),
				"to_status":           string(transaction.Status),
				"rejection_type":      strings.TrimSpace(cmd.RejectionType),
				"remaining_revisions": transaction.RemainingRevisions,
			},
		)); err != nil {
			return err
		}
		if transaction.Status == lifecycle.StatusCompleted {
			completionID, err := uc.IDGenerator.NewID(ctx)
			if err != nil {
				return err
			}
			if err := uc.Outbox.AppendOutbox(ctx, newTransactionEnvelope(
				completionID,
				"transaction.completed",
				transaction.TransactionID,
				now,
				map[string]any{
					"transaction_id": transaction.TransactionID,
					"campaign_id":    transaction.CampaignID,
					"business_id":    transaction.BusinessID,
					"creator_id":     transaction.CreatorID,
					"reward_amount":  campaign.RewardAmount,
				},
			)); err != nil {
				return err
			}
		}
	}

	logger.Info("transaction phase reviewed",
		"event", "transaction_phase_reviewed",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
		"step", string(step),
		"decision", string(cmd.Decision),
		"to_status", string(transaction.Status),
	)
	return nil
}
