package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tandem/contexts/finance-core/payment-service/application"
	"tandem/contexts/finance-core/payment-service/ports"
	httptransport "tandem/contexts/finance-core/payment-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RecordCompletionHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.RecordCompletionRequest,
) (httptransport.PayoutResponse, error) {
	completedAt, _ := time.Parse(time.RFC3339, req.CompletedAt)
	payout, replayed, err := h.Service.RecordCompletion(ctx, idempotencyKey, ports.RecordCompletionInput{
		TransactionID: req.TransactionID,
		CampaignID:    req.CampaignID,
		CreatorID:     req.CreatorID,
		RewardAmount:  req.RewardAmount,
		FeeRate:       req.FeeRate,
		CompletedAt:   completedAt,
	})
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toDTO(payout),
	}, nil
}

func (h Handler) RecordFundingHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.RecordFundingRequest,
) (httptransport.FundingResponse, error) {
	funding, replayed, err := h.Service.RecordFunding(ctx, idempotencyKey, ports.RecordFundingInput{
		TransactionID: req.TransactionID,
		CampaignID:    req.CampaignID,
		BusinessID:    req.BusinessID,
		RewardAmount:  req.RewardAmount,
		FeeRate:       req.FeeRate,
	})
	if err != nil {
		return httptransport.FundingResponse{}, err
	}
	return httptransport.FundingResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     fundingToDTO(funding),
	}, nil
}

func (h Handler) GetFundingHandler(ctx context.Context, transactionID string) (httptransport.FundingResponse, error) {
	funding, err := h.Service.GetFunding(ctx, transactionID)
	if err != nil {
		return httptransport.FundingResponse{}, err
	}
	return httptransport.FundingResponse{
		Status: "success",
		Data:   fundingToDTO(funding),
	}, nil
}

func (h Handler) ConsumeTransactionCompletedEventHandler(
	ctx context.Context,
	req httptransport.TransactionCompletedEventRequest,
) (httptransport.PayoutResponse, error) {
	completedAt, _ := time.Parse(time.RFC3339, req.CompletedAt)
	payout, replayed, err := h.Service.ConsumeTransactionCompletedEvent(ctx, req.EventID, ports.TransactionCompletedEvent{
		TransactionID: req.TransactionID,
		CampaignID:    req.CampaignID,
		CreatorID:     req.CreatorID,
		RewardAmount:  req.RewardAmount,
		CompletedAt:   completedAt,
	})
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toDTO(payout),
	}, nil
}

func (h Handler) MarkWithdrawnHandler(
	ctx context.Context,
	req httptransport.MarkWithdrawnRequest,
) (httptransport.PayoutResponse, error) {
	payout, err := h.Service.MarkWithdrawn(ctx, req.TransactionID, req.UserID)
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{
		Status: "success",
		Data:   toDTO(payout),
	}, nil
}

func (h Handler) ListPayoutsHandler(
	ctx context.Context,
	req httptransport.PayoutHistoryRequest,
) (httptransport.PayoutHistoryResponse, error) {
	items, err := h.Service.ListPayouts(ctx, req.UserID, req.Limit, req.Offset)
	if err != nil {
		return httptransport.PayoutHistoryResponse{}, err
	}
	resp := httptransport.PayoutHistoryResponse{
		Status: "success",
		Data:   make([]httptransport.PayoutDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toDTO(item))
	}
	return resp, nil
}

func (h Handler) MonthlyReportHandler(
	ctx context.Context,
	req httptransport.PayoutReportRequest,
) (httptransport.PayoutReportResponse, error) {
	report, err := h.Service.MonthlyReport(ctx, req.Month)
	if err != nil {
		return httptransport.PayoutReportResponse{}, err
	}
	resp := httptransport.PayoutReportResponse{Status: "success"}
	resp.Data.Month = report.Month
	resp.Data.Count = report.Count
	resp.Data.TotalGross = report.TotalGross
	resp.Data.TotalFee = report.TotalFee
	resp.Data.TotalNet = report.TotalNet
	return resp, nil
}

func fundingToDTO(funding ports.Funding) httptransport.FundingDTO {
	return httptransport.FundingDTO{
		FundingID:     funding.FundingID,
		TransactionID: funding.TransactionID,
		CampaignID:    funding.CampaignID,
		BusinessID:    funding.BusinessID,
		RewardAmount:  funding.RewardAmount,
		FeeRate:       funding.FeeRate,
		FeeAmount:     funding.FeeAmount,
		TotalCharge:   funding.TotalCharge,
		CreatedAt:     funding.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toDTO(payout ports.Payout) httptransport.PayoutDTO {
	dto := httptransport.PayoutDTO{
		PayoutID:      payout.PayoutID,
		TransactionID: payout.TransactionID,
		CampaignID:    payout.CampaignID,
		UserID:        payout.UserID,
		GrossAmount:   payout.GrossAmount,
		FeeRate:       payout.FeeRate,
		FeeAmount:     payout.FeeAmount,
		NetAmount:     payout.NetAmount,
		Status:        string(payout.Status),
		CreatedAt:     payout.CreatedAt.UTC().Format(time.RFC3339),
		SourceEventID: payout.SourceEventID,
	}
	if payout.WithdrawnAt != nil {
		dto.WithdrawnAt = payout.WithdrawnAt.UTC().Format(time.RFC3339)
	}
	return dto
}
