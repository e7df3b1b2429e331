package ports

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

const (
	ReportStatusOpen      = "open"
	ReportStatusDismissed = "dismissed"
	ReportStatusResolved  = "resolved"
)

// Report is a participant's complaint against a transaction or the user on
// the other side of it.
type Report struct {
	ReportID              string
	TransactionID         string
	SubjectUserID         string
	ReporterID            string
	Reason                string
	Details               string
	Status                string
	CreatedAt             time.Time
	ResolvedAt            *time.Time
	ResolvedBy            string
	Resolution            string
	TransactionTerminated bool
}

type SubmitReportInput struct {
	TransactionID string
	SubjectUserID string
	Reason        string
	Details       string
}

type ResolveReportInput struct {
	ReportID   string
	Resolution string
}

type QueueFilter struct {
	Status string
	Limit  int
	Offset int
}

// TransactionTerminationClient lets a moderator kill the reported
// transaction in the marketplace as part of a resolution.
type TransactionTerminationClient interface {
	TerminateTransaction(ctx context.Context, transactionID string, moderatorID string, reason string) error
}

type Repository interface {
	CreateReport(ctx context.Context, report Report) error
	GetReport(ctx context.Context, reportID string) (Report, error)
	ListQueue(ctx context.Context, filter QueueFilter) ([]Report, error)
	UpdateReport(ctx context.Context, report Report) error
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
