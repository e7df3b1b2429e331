package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"tandem/contexts/marketplace/transaction-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/events"
	"tandem/internal/shared/lifecycle"

	"github.com/google/uuid"
)

type outboxRow struct {
	message ports.OutboxMessage
	status  string
}

type Store struct {
	mu sync.RWMutex

	transactions map[string]entities.Transaction
	campaigns    map[string]ports.CampaignSnapshot
	idempotency  map[string]ports.IdempotencyRecord
	outbox       []outboxRow

	now *time.Time
}

func NewStore(seed []entities.Transaction) *Store {
	transactions := make(map[string]entities.Transaction, len(seed))
	for _, item := range seed {
		transactions[item.TransactionID] = item
	}
	return &Store{
		transactions: transactions,
		campaigns:    make(map[string]ports.CampaignSnapshot),
		idempotency:  make(map[string]ports.IdempotencyRecord),
	}
}

// SetNow pins the clock for tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) CreateTransaction(_ context.Context, transaction entities.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[transaction.TransactionID]; exists {
		return domainerrors.ErrInvalidTransactionInput
	}
	s.transactions[transaction.TransactionID] = transaction
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, transaction entities.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[transaction.TransactionID]; !exists {
		return domainerrors.ErrTransactionNotFound
	}
	s.transactions[transaction.TransactionID] = transaction
	return nil
}

func (s *Store) GetTransaction(_ context.Context, transactionID string) (entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.transactions[strings.TrimSpace(transactionID)]
	if !exists {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	return item, nil
}

func (s *Store) FindByCampaignAndCreator(_ context.Context, campaignID string, creatorID string) (entities.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest entities.Transaction
	found := false
	for _, item := range s.transactions {
		if item.CampaignID != strings.TrimSpace(campaignID) || item.CreatorID != strings.TrimSpace(creatorID) {
			continue
		}
		if !found || item.CreatedAt.After(latest.CreatedAt) {
			latest = item
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) ListTransactions(_ context.Context, filter ports.TransactionFilter) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Transaction, 0, len(s.transactions))
	for _, item := range s.transactions {
		if filter.CampaignID != "" && item.CampaignID != filter.CampaignID {
			continue
		}
		if filter.CreatorID != "" && item.CreatorID != filter.CreatorID {
			continue
		}
		if filter.BusinessID != "" && item.BusinessID != filter.BusinessID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CountActiveByCampaign(_ context.Context, campaignID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.transactions {
		if item.CampaignID == strings.TrimSpace(campaignID) && item.IsActive() {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListExpiredOffers(_ context.Context, threshold time.Time, limit int) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	var items []entities.Transaction
	for _, item := range s.transactions {
		if item.Status != lifecycle.StatusOffering {
			continue
		}
		if item.OfferExpiresAt == nil || !item.OfferExpiresAt.UTC().Before(threshold.UTC()) {
			continue
		}
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) GetCampaignSnapshot(_ context.Context, campaignID string) (ports.CampaignSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return ports.CampaignSnapshot{}, domainerrors.ErrCampaignNotFound
	}
	return snapshot, nil
}

func (s *Store) PutCampaignSnapshot(_ context.Context, snapshot ports.CampaignSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campaigns[strings.TrimSpace(snapshot.CampaignID)] = snapshot
	return nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.idempotency[strings.TrimSpace(key)]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idempotency[strings.TrimSpace(record.Key)] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAtUTC,
		},
		status: "pending",
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	var items []ports.OutboxMessage
	for _, row := range s.outbox {
		if row.status != "pending" {
			continue
		}
		items = append(items, row.message)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.outbox {
		if row.message.OutboxID == outboxID {
			s.outbox[i].status = "published"
			return nil
		}
	}
	return domainerrors.ErrInvalidTransactionInput
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now != nil {
		return *s.now
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
