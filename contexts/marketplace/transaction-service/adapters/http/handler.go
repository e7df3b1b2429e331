package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tandem/contexts/marketplace/transaction-service/application/commands"
	"tandem/contexts/marketplace/transaction-service/application/queries"
	"tandem/contexts/marketplace/transaction-service/domain/entities"
	httptransport "tandem/contexts/marketplace/transaction-service/transport/http"
	"tandem/internal/shared/lifecycle"
)

type Handler struct {
	Register            commands.RegisterUseCase
	ReviewRegistration  commands.ReviewRegistrationUseCase
	SendOffer           commands.SendOfferUseCase
	RespondOffer        commands.RespondOfferUseCase
	ConfirmOfferPayment commands.ConfirmOfferPaymentUseCase
	SubmitPhase         commands.SubmitPhaseUseCase
	ReviewPhase         commands.ReviewPhaseUseCase
	Terminate           commands.TerminateUseCase
	WithdrawPayout      commands.WithdrawPayoutUseCase
	Queries             queries.QueryUseCase
	Logger              *slog.Logger
}

func (h Handler) RegisterHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.RegisterRequest,
) (httptransport.RegisterResponse, error) {
	result, err := h.Register.Execute(ctx, commands.RegisterCommand{
		CampaignID:     req.CampaignID,
		CreatorID:      userID,
		IdempotencyKey: idempotencyKey,
		Pitch:          req.Pitch,
	})
	if err != nil {
		return httptransport.RegisterResponse{}, err
	}
	return httptransport.RegisterResponse{
		Transaction: mapTransaction(result.Transaction),
		Replayed:    result.Replayed,
	}, nil
}

func (h Handler) ReviewRegistrationHandler(
	ctx context.Context,
	userID string,
	transactionID string,
	req httptransport.ReviewRegistrationRequest,
) error {
	return h.ReviewRegistration.Execute(ctx, commands.ReviewRegistrationCommand{
		TransactionID: transactionID,
		ActorID:       userID,
		Decision:      commands.RegistrationDecision(req.Decision),
		Note:          req.Note,
	})
}

func (h Handler) SendOfferHandler(
	ctx context.Context,
	userID string,
	req httptransport.SendOfferRequest,
) (httptransport.SendOfferResponse, error) {
	result, err := h.SendOffer.Execute(ctx, commands.SendOfferCommand{
		CampaignID: req.CampaignID,
		ActorID:    userID,
		CreatorID:  req.CreatorID,
		Message:    req.Message,
	})
	if err != nil {
		return httptransport.SendOfferResponse{}, err
	}
	return httptransport.SendOfferResponse{Transaction: mapTransaction(result.Transaction)}, nil
}

func (h Handler) RespondOfferHandler(
	ctx context.Context,
	userID string,
	transactionID string,
	req httptransport.RespondOfferRequest,
) error {
	return h.RespondOffer.Execute(ctx, commands.RespondOfferCommand{
		TransactionID: transactionID,
		ActorID:       userID,
		Decision:      commands.OfferDecision(req.Decision),
	})
}

func (h Handler) ConfirmOfferPaymentHandler(
	ctx context.Context,
	userID string,
	transactionID string,
	req httptransport.ConfirmOfferPaymentRequest,
) error {
	return h.ConfirmOfferPayment.Execute(ctx, commands.ConfirmOfferPaymentCommand{
		TransactionID: transactionID,
		ActorID:       userID,
		PaymentRef:    req.PaymentRef,
	})
}

func (h Handler) SubmitPhaseHandler(
	ctx context.Context,
	userID string,
	transactionID string,
	req httptransport.SubmitPhaseRequest,
) (httptransport.SubmitPhaseResponse, error) {
	result, err := h.SubmitPhase.Execute(ctx, commands.SubmitPhaseCommand{
		TransactionID: transactionID,
		ActorID:       userID,
		Step:          req.Step,
		Content:       req.Content,
	})
	if err != nil {
		return httptransport.SubmitPhaseResponse{}, err
	}
	return httptransport.SubmitPhaseResponse{
		Transaction: mapTransaction(result.Transaction),
		Submission:  mapSubmission(result.Submission),
	}, nil
}

func (h Handler) ReviewPhaseHandler(
	ctx context.Context,
	userID string,
	transactionID string,
	req httptransport.ReviewPhaseRequest,
) error {
	return h.ReviewPhase.Execute(ctx, commands.ReviewPhaseCommand{
		TransactionID: transactionID,
		ActorID:       userID,
		Step:          req.Step,
		Decision:      commands.PhaseDecision(req.Decision),
		RejectionType: req.RejectionType,
		Note:          req.Note,
	})
}

func (h Handler) TerminateHandler(
	ctx context.Context,
	userID string,
	transactionID string,
	req httptransport.TerminateRequest,
) error {
	return h.Terminate.Execute(ctx, commands.TerminateCommand{
		TransactionID: transactionID,
		ActorID:       userID,
		Reason:        req.Reason,
	})
}

func (h Handler) WithdrawPayoutHandler(ctx context.Context, userID string, transactionID string) error {
	return h.WithdrawPayout.Execute(ctx, commands.WithdrawPayoutCommand{
		TransactionID: transactionID,
		ActorID:       userID,
	})
}

func (h Handler) GetTransactionHandler(ctx context.Context, transactionID string) (httptransport.GetTransactionResponse, error) {
	item, err := h.Queries.GetTransaction(ctx, transactionID)
	if err != nil {
		return httptransport.GetTransactionResponse{}, err
	}
	return httptransport.GetTransactionResponse{Transaction: mapTransaction(item)}, nil
}

func (h Handler) ListTransactionsHandler(
	ctx context.Context,
	campaignID string,
	creatorID string,
	businessID string,
	status string,
) (httptransport.ListTransactionsResponse, error) {
	items, err := h.Queries.ListTransactions(ctx, queries.ListTransactionsQuery{
		CampaignID: campaignID,
		CreatorID:  creatorID,
		BusinessID: businessID,
		Status:     status,
	})
	if err != nil {
		return httptransport.ListTransactionsResponse{}, err
	}
	result := make([]httptransport.TransactionDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapTransaction(item))
	}
	return httptransport.ListTransactionsResponse{Items: result}, nil
}

func (h Handler) TransactionProgressHandler(
	ctx context.Context,
	transactionID string,
	role string,
) (httptransport.TransactionProgressResponse, error) {
	progress, err := h.Queries.TransactionProgress(ctx, transactionID, lifecycle.Role(role))
	if err != nil {
		return httptransport.TransactionProgressResponse{}, err
	}
	stepper := make([]string, 0, len(progress.Stepper))
	for _, state := range progress.Stepper {
		stepper = append(stepper, string(state))
	}
	return httptransport.TransactionProgressResponse{
		TransactionID:        progress.TransactionID,
		CampaignID:           progress.CampaignID,
		Status:               string(progress.Status),
		Step:                 string(progress.Step),
		RemainingRevisions:   progress.RemainingRevisions,
		Stepper:              stepper,
		WaitingBusinessInput: progress.WaitingBusinessInput,
		WaitingCreatorInput:  progress.WaitingCreatorInput,
	}, nil
}

func mapTransaction(item entities.Transaction) httptransport.TransactionDTO {
	submissions := make([]httptransport.PhaseSubmissionDTO, 0, len(item.Submissions))
	for _, sub := range item.Submissions {
		submissions = append(submissions, mapSubmission(sub))
	}
	result := httptransport.TransactionDTO{
		TransactionID:      item.TransactionID,
		CampaignID:         item.CampaignID,
		BusinessID:         item.BusinessID,
		CreatorID:          item.CreatorID,
		Status:             string(item.Status),
		RemainingRevisions: item.RemainingRevisions,
		Submissions:        submissions,
		BusinessPayout: httptransport.PayoutDTO{
			Approved:  item.Payouts.BusinessPeople.Approved,
			Withdrawn: item.Payouts.BusinessPeople.Withdrawn,
		},
		CreatorPayout: httptransport.PayoutDTO{
			Approved:  item.Payouts.ContentCreator.Approved,
			Withdrawn: item.Payouts.ContentCreator.Withdrawn,
		},
		TerminationReason: item.TerminationReason,
		CreatedAt:         item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.Format(time.RFC3339),
	}
	if item.OfferExpiresAt != nil {
		result.OfferExpiresAt = item.OfferExpiresAt.UTC().Format(time.RFC3339)
	}
	if item.CompletedAt != nil {
		result.CompletedAt = item.CompletedAt.UTC().Format(time.RFC3339)
	}
	if item.TerminatedAt != nil {
		result.TerminatedAt = item.TerminatedAt.UTC().Format(time.RFC3339)
	}
	return result
}

func mapSubmission(sub entities.PhaseSubmission) httptransport.PhaseSubmissionDTO {
	result := httptransport.PhaseSubmissionDTO{
		SubmissionID:  sub.SubmissionID,
		Step:          string(sub.Step),
		Content:       sub.Content,
		Status:        string(sub.Status),
		RejectionType: string(sub.RejectionType),
		ReviewNote:    sub.ReviewNote,
		SubmittedAt:   sub.SubmittedAt.Format(time.RFC3339),
	}
	if sub.ReviewedAt != nil {
		result.ReviewedAt = sub.ReviewedAt.UTC().Format(time.RFC3339)
	}
	return result
}
