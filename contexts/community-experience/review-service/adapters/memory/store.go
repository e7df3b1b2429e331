package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "tandem/contexts/community-experience/review-service/domain/errors"
	"tandem/contexts/community-experience/review-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	reviews      map[string]ports.Review
	transactions map[string]ports.TransactionSnapshot

	now *time.Time
}

func NewStore() *Store {
	return &Store{
		reviews:      make(map[string]ports.Review),
		transactions: make(map[string]ports.TransactionSnapshot),
	}
}

// SetNow pins the clock for tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) CreateReview(_ context.Context, review ports.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(review.ReviewID)
	if id == "" {
		return domainerrors.ErrInvalidRequest
	}
	if _, exists := s.reviews[id]; exists {
		return domainerrors.ErrDuplicateReview
	}
	s.reviews[id] = review
	return nil
}

func (s *Store) GetReview(_ context.Context, reviewID string) (ports.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	review, ok := s.reviews[strings.TrimSpace(reviewID)]
	if !ok {
		return ports.Review{}, domainerrors.ErrReviewNotFound
	}
	return review, nil
}

func (s *Store) FindByTransactionAndAuthor(_ context.Context, transactionID string, authorID string) (ports.Review, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, review := range s.reviews {
		if review.TransactionID == strings.TrimSpace(transactionID) && review.AuthorID == strings.TrimSpace(authorID) {
			return review, true, nil
		}
	}
	return ports.Review{}, false, nil
}

func (s *Store) ListReviewsBySubject(_ context.Context, filter ports.ReviewFilter) ([]ports.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	items := make([]ports.Review, 0)
	for _, review := range s.reviews {
		if review.SubjectID == filter.SubjectID {
			items = append(items, review)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []ports.Review{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]ports.Review(nil), items[offset:end]...), nil
}

func (s *Store) GetRatingSummary(_ context.Context, userID string) (ports.RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := ports.RatingSummary{UserID: strings.TrimSpace(userID)}
	total := 0
	for _, review := range s.reviews {
		if review.SubjectID == summary.UserID {
			summary.ReviewCount++
			total += review.Rating
		}
	}
	if summary.ReviewCount > 0 {
		summary.AverageRating = float64(total) / float64(summary.ReviewCount)
	}
	return summary, nil
}

func (s *Store) GetTransactionSnapshot(_ context.Context, transactionID string) (ports.TransactionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.transactions[strings.TrimSpace(transactionID)]
	if !ok {
		return ports.TransactionSnapshot{}, domainerrors.ErrTransactionNotFound
	}
	return snapshot, nil
}

func (s *Store) PutTransactionSnapshot(_ context.Context, snapshot ports.TransactionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(snapshot.TransactionID)
	if id == "" {
		return domainerrors.ErrInvalidRequest
	}
	s.transactions[id] = snapshot
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
