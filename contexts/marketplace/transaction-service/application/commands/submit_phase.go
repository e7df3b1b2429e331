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

type SubmitPhaseCommand struct {
	TransactionID string
	ActorID       string
	Step          string
	Content       string
}

type SubmitPhaseUseCase struct {
	Transactions ports.TransactionRepository
	Campaigns    ports.CampaignDirectory
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

type SubmitPhaseResult struct {
	Transaction entities.Transaction
	Submission  entities.PhaseSubmission
}

// Execute records a creator deliverable for one phase. Brainstorm and content
// submissions advance the status machine; result submissions are tracked on
// the transaction while the status stays at content_submitted until the
// sponsor approves the result.
func (uc SubmitPhaseUseCase) Execute(ctx context.Context, cmd SubmitPhaseCommand) (SubmitPhaseResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	step := lifecycle.Step(strings.TrimSpace(cmd.Step))
	if !entities.IsSubmittableStep(step) {
		return SubmitPhaseResult{}, domainerrors.ErrInvalidTransactionInput
	}
	if !entities.ValidateSubmissionContent(cmd.Content) {
		return SubmitPhaseResult{}, domainerrors.ErrInvalidTransactionInput
	}

	transaction, err := uc.Transactions.GetTransaction(ctx, strings.TrimSpace(cmd.TransactionID))
	if err != nil {
		return SubmitPhaseResult{}, err
	}
	if strings.TrimSpace(cmd.ActorID) == "" || transaction.CreatorID != strings.TrimSpace(cmd.ActorID) {
		return SubmitPhaseResult{}, domainerrors.ErrUnauthorizedActor
	}

	campaign, err := uc.Campaigns.GetCampaignSnapshot(ctx, transaction.CampaignID)
	if err != nil {
		return SubmitPhaseResult{}, err
	}
	if !campaign.Schedule().IsStepScheduled(step) {
		return SubmitPhaseResult{}, domainerrors.ErrStepNotScheduled
	}
	if _, open := transaction.PendingSubmission(step); open {
		return SubmitPhaseResult{}, domainerrors.ErrSubmissionAlreadyOpen
	}

	machine, err := transaction.Machine()
	if err != nil {
		return SubmitPhaseResult{}, err
	}

	switch step {
	case lifecycle.StepBrainstorming:
		machine, err = machine.Transition(lifecycle.StatusBrainstormSubmitted, campaign.HasBrainstorming)
		if err != nil {
			return SubmitPhaseResult{}, domainerrors.ErrInvalidStateTransition
		}
	case lifecycle.StepContentCreation:
		machine, err = machine.Transition(lifecycle.StatusContentSubmitted, campaign.HasBrainstorming)
		if err != nil {
			return SubmitPhaseResult{}, domainerrors.ErrInvalidStateTransition
		}
	case lifecycle.StepResultSubmission:
		// Result proof rides on top of an approved content phase; the status
		// machine stays at content_submitted until the result is approved.
		if machine.Status() != lifecycle.StatusContentSubmitted {
			return SubmitPhaseResult{}, domainerrors.ErrInvalidStateTransition
		}
		if !transaction.HasApprovedSubmission(lifecycle.StepContentCreation) {
			return SubmitPhaseResult{}, domainerrors.ErrInvalidStateTransition
		}
	}

	now := uc.Clock.Now().UTC()
	submissionID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return SubmitPhaseResult{}, err
	}
	submission := entities.PhaseSubmission{
		SubmissionID: submissionID,
		Step:         step,
		Content:      strings.TrimSpace(cmd.Content),
		Status:       entities.SubmissionPending,
		SubmittedAt:  now,
	}
	transaction.Submissions = append(transaction.Submissions, submission)
	transaction.Status = machine.Status()
	transaction.UpdatedAt = now
	if err := uc.Transactions.UpdateTransaction(ctx, transaction); err != nil {
		return SubmitPhaseResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return SubmitPhaseResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, newTransactionEnvelope(
			eventID,
			"transaction.phase_submitted",
			transaction.TransactionID,
			now,
			map[string]any{
				"transaction_id": transaction.TransactionID,
				"campaign_id":    transaction.CampaignID,
				"creator_id":     transaction.CreatorID,
				"submission_id":  submission.SubmissionID,
				"step":           string(step),
				"status":         string(transaction.Status),
			},
		)); err != nil {
			return SubmitPhaseResult{}, err
		}
	}

	logger.Info("transaction phase submitted",
		"event", "transaction_phase_submitted",
		"module", "marketplace/transaction-service",
		"layer", "application",
		"transaction_id", transaction.TransactionID,
		"step", string(step),
		"status", string(transaction.Status),
	)
	return SubmitPhaseResult{Transaction: transaction, Submission: submission}, nil
}
