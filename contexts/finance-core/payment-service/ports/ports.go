package ports

import (
	"context"
	"time"

	contractsv1 "tandem/contracts/gen/events/v1"
	"tandem/internal/shared/events"
)

type PayoutStatus string

const (
	PayoutAvailable PayoutStatus = "available"
	PayoutWithdrawn PayoutStatus = "withdrawn"
)

// Payout is one creator's claim on the escrowed reward of a completed
// transaction, net of the platform fee.
type Payout struct {
	PayoutID      string
	TransactionID string
	CampaignID    string
	UserID        string
	GrossAmount   float64
	FeeRate       float64
	FeeAmount     float64
	NetAmount     float64
	Status        PayoutStatus
	CreatedAt     time.Time
	WithdrawnAt   *time.Time
	SourceEventID string
}

type RecordCompletionInput struct {
	TransactionID string
	CampaignID    string
	CreatorID     string
	RewardAmount  float64
	FeeRate       float64
	CompletedAt   time.Time
	SourceEventID string
}

type TransactionCompletedEvent struct {
	TransactionID string
	CampaignID    string
	CreatorID     string
	RewardAmount  float64
	CompletedAt   time.Time
}

// Funding is the business side of the ledger: the charge booked when a
// sponsor funds a direct offer. The platform fee is added on top of the
// reward, so the creator payout later carves its fee out of the reward while
// the sponsor paid reward plus fee.
type Funding struct {
	FundingID     string
	TransactionID string
	CampaignID    string
	BusinessID    string
	RewardAmount  float64
	FeeRate       float64
	FeeAmount     float64
	TotalCharge   float64
	CreatedAt     time.Time
}

type RecordFundingInput struct {
	TransactionID string
	CampaignID    string
	BusinessID    string
	RewardAmount  float64
	FeeRate       float64
}

type Repository interface {
	CreatePayout(ctx context.Context, payout Payout) error
	GetPayout(ctx context.Context, payoutID string) (Payout, error)
	GetPayoutByTransactionAndUser(ctx context.Context, transactionID string, userID string) (Payout, error)
	UpdatePayout(ctx context.Context, payout Payout) error
	ListPayoutsByUser(ctx context.Context, userID string, limit int, offset int) ([]Payout, error)
	BuildMonthlyReport(ctx context.Context, month string) (PayoutReport, error)
	CreateFunding(ctx context.Context, funding Funding) error
	GetFundingByTransaction(ctx context.Context, transactionID string) (Funding, error)
}

type PayoutReport struct {
	Month      string
	TotalGross float64
	TotalFee   float64
	TotalNet   float64
	Count      int
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}
