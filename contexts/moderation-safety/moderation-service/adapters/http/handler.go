package httpadapter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tandem/contexts/moderation-safety/moderation-service/application"
	domainerrors "tandem/contexts/moderation-safety/moderation-service/domain/errors"
	"tandem/contexts/moderation-safety/moderation-service/ports"
	httptransport "tandem/contexts/moderation-safety/moderation-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) SubmitReportHandler(
	ctx context.Context,
	idempotencyKey string,
	reporterID string,
	req httptransport.SubmitReportRequest,
) (httptransport.ReportResponse, error) {
	report, err := h.Service.SubmitReport(ctx, idempotencyKey, reporterID, ports.SubmitReportInput{
		TransactionID: req.TransactionID,
		SubjectUserID: req.SubjectUserID,
		Reason:        req.Reason,
		Details:       req.Details,
	})
	if err != nil {
		return httptransport.ReportResponse{}, err
	}
	return httptransport.ReportResponse{
		Status: "success",
		Data:   toDTO(report),
	}, nil
}

func (h Handler) GetReportHandler(ctx context.Context, reportID string) (httptransport.ReportResponse, error) {
	report, err := h.Service.GetReport(ctx, reportID)
	if err != nil {
		return httptransport.ReportResponse{}, err
	}
	return httptransport.ReportResponse{
		Status: "success",
		Data:   toDTO(report),
	}, nil
}

func (h Handler) ListQueueHandler(ctx context.Context, statusRaw string, limitRaw string, offsetRaw string) (httptransport.QueueResponse, error) {
	filter := ports.QueueFilter{Status: strings.TrimSpace(statusRaw)}
	if parsed, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil {
		filter.Limit = parsed
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(offsetRaw)); err == nil {
		filter.Offset = parsed
	}
	items, err := h.Service.ListQueue(ctx, filter)
	if err != nil {
		return httptransport.QueueResponse{}, err
	}
	resp := httptransport.QueueResponse{
		Status: "success",
		Data:   make([]httptransport.ReportDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toDTO(item))
	}
	return resp, nil
}

func (h Handler) ResolveReportHandler(
	ctx context.Context,
	idempotencyKey string,
	moderatorID string,
	reportID string,
	req httptransport.ResolveReportRequest,
) (httptransport.ReportResponse, error) {
	input := ports.ResolveReportInput{
		ReportID:   reportID,
		Resolution: req.Resolution,
	}
	var report ports.Report
	var err error
	switch strings.TrimSpace(strings.ToLower(req.Action)) {
	case "dismiss":
		report, err = h.Service.Dismiss(ctx, idempotencyKey, moderatorID, input)
	case "terminate":
		report, err = h.Service.Terminate(ctx, idempotencyKey, moderatorID, input)
	default:
		return httptransport.ReportResponse{}, domainerrors.ErrInvalidRequest
	}
	if err != nil {
		return httptransport.ReportResponse{}, err
	}
	return httptransport.ReportResponse{
		Status: "success",
		Data:   toDTO(report),
	}, nil
}

func toDTO(report ports.Report) httptransport.ReportDTO {
	dto := httptransport.ReportDTO{
		ReportID:              report.ReportID,
		TransactionID:         report.TransactionID,
		SubjectUserID:         report.SubjectUserID,
		ReporterID:            report.ReporterID,
		Reason:                report.Reason,
		Details:               report.Details,
		Status:                report.Status,
		CreatedAt:             report.CreatedAt.UTC().Format(time.RFC3339),
		ResolvedBy:            report.ResolvedBy,
		Resolution:            report.Resolution,
		TransactionTerminated: report.TransactionTerminated,
	}
	if report.ResolvedAt != nil {
		dto.ResolvedAt = report.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
