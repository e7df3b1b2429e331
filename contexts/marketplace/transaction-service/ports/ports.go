package ports

import (
	"context"
	"time"

	"tandem/contexts/marketplace/transaction-service/domain/entities"
	"tandem/internal/shared/events"
	"tandem/internal/shared/lifecycle"
)

type TransactionFilter struct {
	CampaignID string
	CreatorID  string
	BusinessID string
	Status     lifecycle.Status
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, transaction entities.Transaction) error
	UpdateTransaction(ctx context.Context, transaction entities.Transaction) error
	GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error)
	FindByCampaignAndCreator(ctx context.Context, campaignID string, creatorID string) (entities.Transaction, bool, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]entities.Transaction, error)
	CountActiveByCampaign(ctx context.Context, campaignID string) (int, error)
	ListExpiredOffers(ctx context.Context, threshold time.Time, limit int) ([]entities.Transaction, error)
}

// CampaignSnapshot is the projection of a campaign this service needs to
// admit and progress transactions. It is kept current by campaign events.
type CampaignSnapshot struct {
	CampaignID       string
	BusinessID       string
	Status           string
	Slots            int
	RewardAmount     float64
	HasBrainstorming bool
	Timeline         []lifecycle.Window
}

func (s CampaignSnapshot) Schedule() lifecycle.Schedule {
	return lifecycle.NewSchedule(s.Timeline)
}

type CampaignDirectory interface {
	GetCampaignSnapshot(ctx context.Context, campaignID string) (CampaignSnapshot, error)
	PutCampaignSnapshot(ctx context.Context, snapshot CampaignSnapshot) error
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

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
