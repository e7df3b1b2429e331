package application

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "tandem/contexts/community-experience/review-service/domain/errors"
	"tandem/contexts/community-experience/review-service/ports"
	"tandem/internal/shared/lifecycle"
)

type Service struct {
	Repo         ports.Repository
	Transactions ports.TransactionDirectory
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// SubmitReview records one participant's rating of the other party. Each
// side of a completed transaction may review exactly once.
func (s Service) SubmitReview(ctx context.Context, input ports.SubmitReviewInput) (ports.Review, error) {
	input.TransactionID = strings.TrimSpace(input.TransactionID)
	input.AuthorID = strings.TrimSpace(input.AuthorID)
	input.Comment = strings.TrimSpace(input.Comment)
	if input.TransactionID == "" || input.AuthorID == "" {
		return ports.Review{}, domainerrors.ErrInvalidRequest
	}
	if input.Rating < 1 || input.Rating > 5 {
		return ports.Review{}, domainerrors.ErrInvalidRequest
	}

	snapshot, err := s.Transactions.GetTransactionSnapshot(ctx, input.TransactionID)
	if err != nil {
		return ports.Review{}, domainerrors.ErrTransactionNotFound
	}
	if snapshot.Status != string(lifecycle.StatusCompleted) {
		return ports.Review{}, domainerrors.ErrTransactionNotCompleted
	}

	var role lifecycle.Role
	var subjectID string
	switch input.AuthorID {
	case snapshot.BusinessID:
		role = lifecycle.RoleBusinessPeople
		subjectID = snapshot.CreatorID
	case snapshot.CreatorID:
		role = lifecycle.RoleContentCreator
		subjectID = snapshot.BusinessID
	default:
		return ports.Review{}, domainerrors.ErrNotParticipant
	}

	if _, found, err := s.Repo.FindByTransactionAndAuthor(ctx, input.TransactionID, input.AuthorID); err != nil {
		return ports.Review{}, err
	} else if found {
		return ports.Review{}, domainerrors.ErrDuplicateReview
	}

	reviewID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.Review{}, err
	}
	review := ports.Review{
		ReviewID:      strings.TrimSpace(reviewID),
		TransactionID: input.TransactionID,
		CampaignID:    snapshot.CampaignID,
		AuthorID:      input.AuthorID,
		AuthorRole:    role,
		SubjectID:     subjectID,
		Rating:        input.Rating,
		Comment:       input.Comment,
		CreatedAt:     s.Clock.Now().UTC(),
	}
	if err := s.Repo.CreateReview(ctx, review); err != nil {
		return ports.Review{}, err
	}

	resolveLogger(s.Logger).Info("review submitted",
		"event", "review_submitted",
		"module", "community-experience/review-service",
		"layer", "application",
		"review_id", review.ReviewID,
		"transaction_id", review.TransactionID,
		"author_role", string(role),
		"rating", review.Rating,
	)
	return review, nil
}

func (s Service) GetReview(ctx context.Context, reviewID string) (ports.Review, error) {
	reviewID = strings.TrimSpace(reviewID)
	if reviewID == "" {
		return ports.Review{}, domainerrors.ErrInvalidRequest
	}
	return s.Repo.GetReview(ctx, reviewID)
}

func (s Service) ListReviews(ctx context.Context, filter ports.ReviewFilter) ([]ports.Review, error) {
	filter.SubjectID = strings.TrimSpace(filter.SubjectID)
	if filter.SubjectID == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	if filter.Offset < 0 {
		return nil, domainerrors.ErrInvalidRequest
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.Repo.ListReviewsBySubject(ctx, filter)
}

func (s Service) RatingSummary(ctx context.Context, userID string) (ports.RatingSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ports.RatingSummary{}, domainerrors.ErrInvalidRequest
	}
	return s.Repo.GetRatingSummary(ctx, userID)
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
