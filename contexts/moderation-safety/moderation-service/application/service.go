package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	domainerrors "tandem/contexts/moderation-safety/moderation-service/domain/errors"
	"tandem/contexts/moderation-safety/moderation-service/ports"
)

type Service struct {
	Repo              ports.Repository
	Idempotency       ports.IdempotencyStore
	TransactionClient ports.TransactionTerminationClient
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	IdempotencyTTL    time.Duration
	Logger            *slog.Logger
}

func (s Service) SubmitReport(ctx context.Context, idempotencyKey string, reporterID string, input ports.SubmitReportInput) (ports.Report, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	reporterID = strings.TrimSpace(reporterID)
	input.TransactionID = strings.TrimSpace(input.TransactionID)
	input.SubjectUserID = strings.TrimSpace(input.SubjectUserID)
	input.Reason = strings.TrimSpace(strings.ToLower(input.Reason))
	input.Details = strings.TrimSpace(input.Details)

	if idempotencyKey == "" {
		return ports.Report{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if reporterID == "" || input.Reason == "" {
		return ports.Report{}, domainerrors.ErrInvalidRequest
	}
	// A report must point at a transaction, a user, or both.
	if input.TransactionID == "" && input.SubjectUserID == "" {
		return ports.Report{}, domainerrors.ErrInvalidRequest
	}

	requestHash := hashStrings(reporterID, input.TransactionID, input.SubjectUserID, input.Reason, input.Details)
	var output ports.Report
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			reportID, err := s.IDGen.NewID(ctx)
			if err != nil {
				return nil, err
			}
			report := ports.Report{
				ReportID:      strings.TrimSpace(reportID),
				TransactionID: input.TransactionID,
				SubjectUserID: input.SubjectUserID,
				ReporterID:    reporterID,
				Reason:        input.Reason,
				Details:       input.Details,
				Status:        ports.ReportStatusOpen,
				CreatedAt:     s.now(),
			}
			if err := s.Repo.CreateReport(ctx, report); err != nil {
				return nil, err
			}
			resolveLogger(s.Logger).Info("report submitted",
				"event", "moderation_report_submitted",
				"module", "moderation-safety/moderation-service",
				"layer", "application",
				"report_id", report.ReportID,
				"transaction_id", report.TransactionID,
				"reason", report.Reason,
			)
			return json.Marshal(report)
		},
	)
	return output, err
}

func (s Service) GetReport(ctx context.Context, reportID string) (ports.Report, error) {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return ports.Report{}, domainerrors.ErrInvalidRequest
	}
	return s.Repo.GetReport(ctx, reportID)
}

func (s Service) ListQueue(ctx context.Context, filter ports.QueueFilter) ([]ports.Report, error) {
	filter.Status = strings.TrimSpace(strings.ToLower(filter.Status))
	if filter.Status != "" {
		switch filter.Status {
		case ports.ReportStatusOpen, ports.ReportStatusDismissed, ports.ReportStatusResolved:
		default:
			return nil, domainerrors.ErrInvalidRequest
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		return nil, domainerrors.ErrInvalidRequest
	}
	return s.Repo.ListQueue(ctx, filter)
}

// Dismiss closes a report without touching the reported transaction.
func (s Service) Dismiss(ctx context.Context, idempotencyKey string, moderatorID string, input ports.ResolveReportInput) (ports.Report, error) {
	return s.runResolution(ctx, idempotencyKey, moderatorID, input, ports.ReportStatusDismissed, nil)
}

// Terminate closes a report and kills the reported transaction through the
// marketplace client.
func (s Service) Terminate(ctx context.Context, idempotencyKey string, moderatorID string, input ports.ResolveReportInput) (ports.Report, error) {
	return s.runResolution(ctx, idempotencyKey, moderatorID, input, ports.ReportStatusResolved, func(report ports.Report) error {
		if s.TransactionClient == nil {
			return domainerrors.ErrDependencyUnavailable
		}
		if report.TransactionID == "" {
			return domainerrors.ErrInvalidRequest
		}
		return s.TransactionClient.TerminateTransaction(ctx, report.TransactionID, moderatorID, input.Resolution)
	})
}

func (s Service) runResolution(
	ctx context.Context,
	idempotencyKey string,
	moderatorID string,
	input ports.ResolveReportInput,
	status string,
	beforePersist func(ports.Report) error,
) (ports.Report, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	moderatorID = strings.TrimSpace(moderatorID)
	input.ReportID = strings.TrimSpace(input.ReportID)
	input.Resolution = strings.TrimSpace(input.Resolution)

	if idempotencyKey == "" {
		return ports.Report{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if moderatorID == "" || input.ReportID == "" {
		return ports.Report{}, domainerrors.ErrInvalidRequest
	}
	if status == ports.ReportStatusResolved && input.Resolution == "" {
		return ports.Report{}, domainerrors.ErrInvalidRequest
	}

	requestHash := hashStrings(moderatorID, input.ReportID, status, input.Resolution)
	var output ports.Report
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			report, err := s.Repo.GetReport(ctx, input.ReportID)
			if err != nil {
				return nil, err
			}
			if report.Status != ports.ReportStatusOpen {
				return nil, domainerrors.ErrReportAlreadyResolved
			}
			if beforePersist != nil {
				if err := beforePersist(report); err != nil {
					return nil, err
				}
				report.TransactionTerminated = true
			}
			now := s.now()
			report.Status = status
			report.ResolvedAt = &now
			report.ResolvedBy = moderatorID
			report.Resolution = input.Resolution
			if err := s.Repo.UpdateReport(ctx, report); err != nil {
				return nil, err
			}
			resolveLogger(s.Logger).Info("report resolved",
				"event", "moderation_report_resolved",
				"module", "moderation-safety/moderation-service",
				"layer", "application",
				"report_id", report.ReportID,
				"status", report.Status,
				"transaction_terminated", report.TransactionTerminated,
			)
			return json.Marshal(report)
		},
	)
	return output, err
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}
	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
