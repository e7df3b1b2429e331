package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "tandem/contexts/finance-core/payment-service/domain/errors"
	"tandem/contexts/finance-core/payment-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	payouts     map[string]ports.Payout
	fundings    map[string]ports.Funding
	idempotency map[string]ports.IdempotencyRecord
	eventDedup  map[string]dedupRecord
	outbox      map[string]outboxRecord

	now *time.Time
}

type dedupRecord struct {
	PayloadHash string
	ExpiresAt   time.Time
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

func NewStore() *Store {
	return &Store{
		payouts:     make(map[string]ports.Payout),
		fundings:    make(map[string]ports.Funding),
		idempotency: make(map[string]ports.IdempotencyRecord),
		eventDedup:  make(map[string]dedupRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

// SetNow pins the clock for tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) CreatePayout(_ context.Context, payout ports.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(payout.PayoutID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.payouts[id]; exists {
		return domainerrors.ErrIdempotencyConflict
	}
	s.payouts[id] = payout
	return nil
}

func (s *Store) GetPayout(_ context.Context, payoutID string) (ports.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.payouts[strings.TrimSpace(payoutID)]
	if !ok {
		return ports.Payout{}, domainerrors.ErrNotFound
	}
	return item, nil
}

func (s *Store) GetPayoutByTransactionAndUser(_ context.Context, transactionID string, userID string) (ports.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.payouts {
		if item.TransactionID == strings.TrimSpace(transactionID) && item.UserID == strings.TrimSpace(userID) {
			return item, nil
		}
	}
	return ports.Payout{}, domainerrors.ErrNotFound
}

func (s *Store) UpdatePayout(_ context.Context, payout ports.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(payout.PayoutID)
	if _, exists := s.payouts[id]; !exists {
		return domainerrors.ErrNotFound
	}
	s.payouts[id] = payout
	return nil
}

func (s *Store) ListPayoutsByUser(_ context.Context, userID string, limit int, offset int) ([]ports.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items := make([]ports.Payout, 0)
	for _, item := range s.payouts {
		if item.UserID == strings.TrimSpace(userID) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []ports.Payout{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]ports.Payout(nil), items[offset:end]...), nil
}

func (s *Store) BuildMonthlyReport(_ context.Context, month string) (ports.PayoutReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := ports.PayoutReport{Month: strings.TrimSpace(month)}
	for _, item := range s.payouts {
		if item.CreatedAt.UTC().Format("2006-01") != report.Month {
			continue
		}
		report.Count++
		report.TotalGross += item.GrossAmount
		report.TotalFee += item.FeeAmount
		report.TotalNet += item.NetAmount
	}
	return report, nil
}

func (s *Store) CreateFunding(_ context.Context, funding ports.Funding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(funding.FundingID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.fundings[id]; exists {
		return domainerrors.ErrIdempotencyConflict
	}
	s.fundings[id] = funding
	return nil
}

func (s *Store) GetFundingByTransaction(_ context.Context, transactionID string) (ports.Funding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.fundings {
		if item.TransactionID == strings.TrimSpace(transactionID) {
			return item, nil
		}
	}
	return ports.Funding{}, domainerrors.ErrNotFound
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrInvalidInput
	}
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if key == "" {
		return false, domainerrors.ErrInvalidInput
	}
	if existing, ok := s.eventDedup[key]; ok {
		if existing.PayloadHash != payloadHash {
			return false, domainerrors.ErrIdempotencyConflict
		}
		return true, nil
	}
	s.eventDedup[key] = dedupRecord{
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidInput
	}

	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}

	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrNotFound
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
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
