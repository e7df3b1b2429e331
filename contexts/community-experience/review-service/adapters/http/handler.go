package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tandem/contexts/community-experience/review-service/application"
	"tandem/contexts/community-experience/review-service/ports"
	httptransport "tandem/contexts/community-experience/review-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) SubmitReviewHandler(
	ctx context.Context,
	authorID string,
	req httptransport.SubmitReviewRequest,
) (httptransport.ReviewResponse, error) {
	review, err := h.Service.SubmitReview(ctx, ports.SubmitReviewInput{
		TransactionID: req.TransactionID,
		AuthorID:      authorID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		return httptransport.ReviewResponse{}, err
	}
	return httptransport.ReviewResponse{
		Status: "success",
		Data:   toDTO(review),
	}, nil
}

func (h Handler) GetReviewHandler(ctx context.Context, reviewID string) (httptransport.ReviewResponse, error) {
	review, err := h.Service.GetReview(ctx, reviewID)
	if err != nil {
		return httptransport.ReviewResponse{}, err
	}
	return httptransport.ReviewResponse{
		Status: "success",
		Data:   toDTO(review),
	}, nil
}

func (h Handler) ListReviewsHandler(
	ctx context.Context,
	req httptransport.ReviewListRequest,
) (httptransport.ReviewListResponse, error) {
	items, err := h.Service.ListReviews(ctx, ports.ReviewFilter{
		SubjectID: req.SubjectID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return httptransport.ReviewListResponse{}, err
	}
	resp := httptransport.ReviewListResponse{
		Status: "success",
		Data:   make([]httptransport.ReviewDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toDTO(item))
	}
	return resp, nil
}

func (h Handler) RatingSummaryHandler(ctx context.Context, userID string) (httptransport.RatingSummaryResponse, error) {
	summary, err := h.Service.RatingSummary(ctx, userID)
	if err != nil {
		return httptransport.RatingSummaryResponse{}, err
	}
	resp := httptransport.RatingSummaryResponse{Status: "success"}
	resp.Data.UserID = summary.UserID
	resp.Data.ReviewCount = summary.ReviewCount
	resp.Data.AverageRating = summary.AverageRating
	return resp, nil
}

func toDTO(review ports.Review) httptransport.ReviewDTO {
	return httptransport.ReviewDTO{
		ReviewID:      review.ReviewID,
		TransactionID: review.TransactionID,
		CampaignID:    review.CampaignID,
		AuthorID:      review.AuthorID,
		AuthorRole:    string(review.AuthorRole),
		SubjectID:     review.SubjectID,
		Rating:        review.Rating,
		Comment:       review.Comment,
		CreatedAt:     review.CreatedAt.UTC().Format(time.RFC3339),
	}
}
