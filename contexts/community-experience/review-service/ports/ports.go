package ports

import (
	"context"
	"time"

	"tandem/internal/shared/events"
	"tandem/internal/shared/lifecycle"
)

// Review is one participant's post-completion rating of the other party.
type Review struct {
	ReviewID      string
	TransactionID string
	CampaignID    string
	AuthorID      string
	AuthorRole    lifecycle.Role
	SubjectID     string
	Rating        int
	Comment       string
	CreatedAt     time.Time
}

type SubmitReviewInput struct {
	TransactionID string
	AuthorID      string
	Rating        int
	Comment       string
}

type RatingSummary struct {
	UserID        string
	ReviewCount   int
	AverageRating float64
}

type ReviewFilter struct {
	SubjectID string
	Limit     int
	Offset    int
}

type Repository interface {
	CreateReview(ctx context.Context, review Review) error
	GetReview(ctx context.Context, reviewID string) (Review, error)
	FindByTransactionAndAuthor(ctx context.Context, transactionID string, authorID string) (Review, bool, error)
	ListReviewsBySubject(ctx context.Context, filter ReviewFilter) ([]Review, error)
	GetRatingSummary(ctx context.Context, userID string) (RatingSummary, error)
}

// TransactionSnapshot is the review service's local projection of a
// marketplace transaction, maintained from completion events.
type TransactionSnapshot struct {
	TransactionID string
	CampaignID    string
	BusinessID    string
	CreatorID     string
	Status        string
	CompletedAt   time.Time
}

type TransactionDirectory interface {
	GetTransactionSnapshot(ctx context.Context, transactionID string) (TransactionSnapshot, error)
	PutTransactionSnapshot(ctx context.Context, snapshot TransactionSnapshot) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}
