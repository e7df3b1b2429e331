package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"tandem/contexts/community-experience/review-service/adapters/memory"
	domainerrors "tandem/contexts/community-experience/review-service/domain/errors"
	"tandem/contexts/community-experience/review-service/ports"
	"tandem/internal/shared/lifecycle"
)

func newReviewService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))
	return Service{
		Repo:         store,
		Transactions: store,
		Clock:        store,
		IDGen:        store,
	}, store
}

func seedCompleted(t *testing.T, store *memory.Store, transactionID string) {
	t.Helper()
	if err := store.PutTransactionSnapshot(context.Background(), ports.TransactionSnapshot{
		TransactionID: transactionID,
		CampaignID:    "camp-1",
		BusinessID:    "biz-1",
		CreatorID:     "creator-1",
		Status:        string(lifecycle.StatusCompleted),
		CompletedAt:   time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seed snapshot failed: %v", err)
	}
}

func TestSubmitReviewBothSides(t *testing.T) {
	svc, store := newReviewService(t)
	seedCompleted(t, store, "tx-1")

	fromBusiness, err := svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
		TransactionID: "tx-1",
		AuthorID:      "biz-1",
		Rating:        5,
		Comment:       "great collaboration",
	})
	if err != nil {
		t.Fatalf("business review failed: %v", err)
	}
	if fromBusiness.SubjectID != "creator-1" || fromBusiness.AuthorRole != lifecycle.RoleBusinessPeople {
		t.Fatalf("unexpected business review %+v", fromBusiness)
	}

	fromCreator, err := svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
		TransactionID: "tx-1",
		AuthorID:      "creator-1",
		Rating:        4,
	})
	if err != nil {
		t.Fatalf("creator review failed: %v", err)
	}
	if fromCreator.SubjectID != "biz-1" || fromCreator.AuthorRole != lifecycle.RoleContentCreator {
		t.Fatalf("unexpected creator review %+v", fromCreator)
	}
}

func TestSubmitReviewOncePerRole(t *testing.T) {
	svc, store := newReviewService(t)
	seedCompleted(t, store, "tx-1")

	if _, err := svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
		TransactionID: "tx-1",
		AuthorID:      "biz-1",
		Rating:        5,
	}); err != nil {
		t.Fatalf("first review failed: %v", err)
	}
	_, err := svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
		TransactionID: "tx-1",
		AuthorID:      "biz-1",
		Rating:        3,
	})
	if !errors.Is(err, domainerrors.ErrDuplicateReview) {
		t.Fatalf("expected duplicate review, got %v", err)
	}
}

func TestSubmitReviewRejectsNonParticipants(t *testing.T) {
	svc, store := newReviewService(t)
	seedCompleted(t, store, "tx-1")

	_, err := svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
		TransactionID: "tx-1",
		AuthorID:      "stranger-1",
		Rating:        5,
	})
	if !errors.Is(err, domainerrors.ErrNotParticipant) {
		t.Fatalf("expected not participant, got %v", err)
	}
}

func TestSubmitReviewRequiresCompletion(t *testing.T) {
	svc, store := newReviewService(t)
	if err := store.PutTransactionSnapshot(context.Background(), ports.TransactionSnapshot{
		TransactionID: "tx-2",
		BusinessID:    "biz-1",
		CreatorID:     "creator-1",
		Status:        string(lifecycle.StatusContentSubmitted),
	}); err != nil {
		t.Fatalf("seed snapshot failed: %v", err)
	}

	_, err := svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
		TransactionID: "tx-2",
		AuthorID:      "biz-1",
		Rating:        5,
	})
	if !errors.Is(err, domainerrors.ErrTransactionNotCompleted) {
		t.Fatalf("expected not completed, got %v", err)
	}

	_, err = svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
		TransactionID: "tx-missing",
		AuthorID:      "biz-1",
		Rating:        5,
	})
	if !errors.Is(err, domainerrors.ErrTransactionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitReviewValidatesRating(t *testing.T) {
	svc, store := newReviewService(t)
	seedCompleted(t, store, "tx-1")

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
			TransactionID: "tx-1",
			AuthorID:      "biz-1",
			Rating:        rating,
		})
		if !errors.Is(err, domainerrors.ErrInvalidRequest) {
			t.Fatalf("rating %d: expected invalid request, got %v", rating, err)
		}
	}
}

func TestRatingSummaryAverages(t *testing.T) {
	svc, store := newReviewService(t)
	for i, tx := range []string{"tx-1", "tx-2", "tx-3"} {
		if err := store.PutTransactionSnapshot(context.Background(), ports.TransactionSnapshot{
			TransactionID: tx,
			CampaignID:    "camp-1",
			BusinessID:    "biz-1",
			CreatorID:     "creator-1",
			Status:        string(lifecycle.StatusCompleted),
		}); err != nil {
			t.Fatalf("seed %d failed: %v", i, err)
		}
	}
	for tx, rating := range map[string]int{"tx-1": 5, "tx-2": 4, "tx-3": 3} {
		if _, err := svc.SubmitReview(context.Background(), ports.SubmitReviewInput{
			TransactionID: tx,
			AuthorID:      "biz-1",
			Rating:        rating,
		}); err != nil {
			t.Fatalf("review for %s failed: %v", tx, err)
		}
	}

	summary, err := svc.RatingSummary(context.Background(), "creator-1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.ReviewCount != 3 {
		t.Fatalf("expected 3 reviews, got %d", summary.ReviewCount)
	}
	if summary.AverageRating != 4 {
		t.Fatalf("expected average 4, got %v", summary.AverageRating)
	}

	reviews, err := svc.ListReviews(context.Background(), ports.ReviewFilter{SubjectID: "creator-1"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(reviews) != 3 {
		t.Fatalf("expected 3 reviews listed, got %d", len(reviews))
	}
}
