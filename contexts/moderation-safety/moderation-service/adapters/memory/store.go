package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "tandem/contexts/moderation-safety/moderation-service/domain/errors"
	"tandem/contexts/moderation-safety/moderation-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	reports     map[string]ports.Report
	idempotency map[string]ports.IdempotencyRecord

	now *time.Time
}

func NewStore() *Store {
	return &Store{
		reports:     make(map[string]ports.Report),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
}

// SetNow pins the clock for tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) CreateReport(_ context.Context, report ports.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(report.ReportID)
	if id == "" {
		return domainerrors.ErrInvalidRequest
	}
	if _, exists := s.reports[id]; exists {
		return domainerrors.ErrIdempotencyConflict
	}
	s.reports[id] = report
	return nil
}

func (s *Store) GetReport(_ context.Context, reportID string) (ports.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[strings.TrimSpace(reportID)]
	if !ok {
		return ports.Report{}, domainerrors.ErrNotFound
	}
	return report, nil
}

func (s *Store) ListQueue(_ context.Context, filter ports.QueueFilter) ([]ports.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.Report, 0, len(s.reports))
	for _, report := range s.reports {
		if filter.Status != "" && !strings.EqualFold(report.Status, filter.Status) {
			continue
		}
		items = append(items, report)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if filter.Offset >= len(items) {
		return []ports.Report{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]ports.Report(nil), items[filter.Offset:end]...), nil
}

func (s *Store) UpdateReport(_ context.Context, report ports.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(report.ReportID)
	if _, exists := s.reports[id]; !exists {
		return domainerrors.ErrNotFound
	}
	s.reports[id] = report
	return nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[record.Key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[record.Key] = record
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

var _ ports.Repository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
