package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/pagination"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/event"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
)

// maxCommentLength caps review comments.
const maxCommentLength = 2000

// ReviewService implements the business logic for book reviews. Only
// verified purchasers may review, one review per user and book.
type ReviewService struct {
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	orders repository.OrderRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// AddReview creates a review for a book the user has purchased. The book's
// rating aggregates are recomputed in the same transaction.
func (s *ReviewService) AddReview(ctx context.Context, userID, bookID string, rating int, comment string) (*domain.Review, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if bookID == "" {
		return nil, apperrors.InvalidInput("book id is required")
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if len(comment) > maxCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must not exceed %d characters", maxCommentLength))
	}

	purchased, err := s.orders.HasPurchased(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}
	if !purchased {
		return nil, apperrors.Forbidden("only purchasers of this book may review it")
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		BookID:    bookID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("book_id", bookID),
		slog.String("user_id", userID),
		slog.Int("rating", rating),
	)

	return review, nil
}

// UpdateReview modifies the caller's own review.
func (s *ReviewService) UpdateReview(ctx context.Context, id, userID string, rating int, comment string) (*domain.Review, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("review id is required")
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if len(comment) > maxCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must not exceed %d characters", maxCommentLength))
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review.UserID != userID {
		return nil, apperrors.Forbidden("only the review author may edit it")
	}

	review.Rating = rating
	review.Comment = comment
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.Int("rating", rating),
	)

	return review, nil
}

// DeleteReview removes a review. Allowed for the author or an admin.
func (s *ReviewService) DeleteReview(ctx context.Context, id, userID, role string) error {
	if id == "" {
		return apperrors.InvalidInput("review id is required")
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if review.UserID != userID && role != RoleAdmin {
		return apperrors.Forbidden("only the review author or an admin may delete it")
	}

	if err := s.reviews.Delete(ctx, review.ID, review.BookID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := s.producer.PublishReviewDeleted(ctx, review.ID, review.BookID, review.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
	)

	return nil
}

// ListReviews returns a page of reviews for a book, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, bookID string, params pagination.Params) (pagination.Page[domain.Review], error) {
	var empty pagination.Page[domain.Review]

	if bookID == "" {
		return empty, apperrors.InvalidInput("book id is required")
	}

	params = params.Normalize()
	reviews, total, err := s.reviews.ListByBook(ctx, bookID, params.Page, params.Size)
	if err != nil {
		return empty, fmt.Errorf("list reviews: %w", err)
	}

	return pagination.NewPage(reviews, total, params), nil
}
