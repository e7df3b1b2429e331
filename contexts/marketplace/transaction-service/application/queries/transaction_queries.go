package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tandem/contexts/marketplace/transaction-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/lifecycle"
)

type QueryUseCase struct {
	Transactions ports.TransactionRepository
	Campaigns    ports.CampaignDirectory
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (q QueryUseCase) GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error) {
	if strings.TrimSpace(transactionID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionInput
	}
	return q.Transactions.GetTransaction(ctx, transactionID)
}

type ListTransactionsQuery struct {
	CampaignID string
	CreatorID  string
	BusinessID string
	Status     string
}

func (q QueryUseCase) ListTransactions(ctx context.Context, query ListTransactionsQuery) ([]entities.Transaction, error) {
	filter := ports.TransactionFilter{
		CampaignID: strings.TrimSpace(query.CampaignID),
		CreatorID:  strings.TrimSpace(query.CreatorID),
		BusinessID: strings.TrimSpace(query.BusinessID),
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, err := lifecycle.ParseStatus(raw)
		if err != nil {
			return nil, domainerrors.ErrInvalidTransactionInput
		}
		filter.Status = status
	}
	return q.Transactions.ListTransactions(ctx, filter)
}

type TransactionProgress struct {
	TransactionID        string
	CampaignID           string
	Status               lifecycle.Status
	Step                 lifecycle.Step
	RemainingRevisions   int
	Stepper              []lifecycle.StepperState
	WaitingBusinessInput bool
	WaitingCreatorInput  bool
}

// TransactionProgress projects the role-scoped stepper for one transaction
// against its campaign's timeline.
func (q QueryUseCase) TransactionProgress(ctx context.Context, transactionID string, role lifecycle.Role) (TransactionProgress, error) {
	if role != lifecycle.RoleBusinessPeople && role != lifecycle.RoleContentCreator {
		return TransactionProgress{}, domainerrors.ErrInvalidTransactionInput
	}
	transaction, err := q.Transactions.GetTransaction(ctx, strings.TrimSpace(transactionID))
	if err != nil {
		return TransactionProgress{}, err
	}
	campaign, err := q.Campaigns.GetCampaignSnapshot(ctx, transaction.CampaignID)
	if err != nil {
		return TransactionProgress{}, err
	}

	now := q.now()
	schedule := campaign.Schedule()
	if err := schedule.CheckAmbiguity(now); errors.Is(err, lifecycle.ErrAmbiguousActiveWindow) {
		q.logger().Warn("campaign timeline windows overlap",
			"event", "transaction_timeline_overlap",
			"module", "marketplace/transaction-service",
			"layer", "application",
			"transaction_id", transaction.TransactionID,
			"campaign_id", transaction.CampaignID,
		)
	}

	machine, err := transaction.Machine()
	if err != nil {
		return TransactionProgress{}, err
	}
	stepper, err := lifecycle.Project(schedule, transaction.Status, role, now)
	if err != nil {
		return TransactionProgress{}, err
	}

	return TransactionProgress{
		TransactionID:        transaction.TransactionID,
		CampaignID:           transaction.CampaignID,
		Status:               transaction.Status,
		Step:                 machine.CampaignStep(),
		RemainingRevisions:   transaction.RemainingRevisions,
		Stepper:              stepper,
		WaitingBusinessInput: machine.IsWaitingBusinessAction(),
		WaitingCreatorInput:  machine.IsWaitingCreatorAction(schedule, now),
	}, nil
}

func (q QueryUseCase) now() time.Time {
	if q.Clock != nil {
		return q.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (q QueryUseCase) logger() *slog.Logger {
	if q.Logger != nil {
		return q.Logger
	}
	return slog.Default()
}
