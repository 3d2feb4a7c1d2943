package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/pagination"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
)

// --- Mock Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id, bookID string) error {
	args := m.Called(ctx, id, bookID)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByBook(ctx context.Context, bookID string, page, size int) ([]domain.Review, int, error) {
	args := m.Called(ctx, bookID, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func newTestReviewService(reviews *mockReviewRepository, orders *mockOrderRepository) *ReviewService {
	return NewReviewService(reviews, orders, newTestProducer(), newTestLogger())
}

// --- Tests ---

func TestAddReview_Success(t *testing.T) {
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	svc := newTestReviewService(reviews, orders)
	ctx := context.Background()

	orders.On("HasPurchased", ctx, "user-123", "book-001").Return(true, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.AddReview(ctx, "user-123", "book-001", 5, "A masterpiece.")
	require.NoError(t, err)

	assert.NotEmpty(t, review.ID)
	assert.Equal(t, "book-001", review.BookID)
	assert.Equal(t, 5, review.Rating)
	reviews.AssertExpectations(t)
}

func TestAddReview_RequiresPurchase(t *testing.T) {
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	svc := newTestReviewService(reviews, orders)
	ctx := context.Background()

	orders.On("HasPurchased", ctx, "user-123", "book-001").Return(false, nil)

	_, err := svc.AddReview(ctx, "user-123", "book-001", 4, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAddReview_Duplicate(t *testing.T) {
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	svc := newTestReviewService(reviews, orders)
	ctx := context.Background()

	orders.On("HasPurchased", ctx, "user-123", "book-001").Return(true, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).
		Return(apperrors.AlreadyExists("review", "book", "book-001"))

	_, err := svc.AddReview(ctx, "user-123", "book-001", 4, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestAddReview_InvalidRating(t *testing.T) {
	svc := newTestReviewService(new(mockReviewRepository), new(mockOrderRepository))

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.AddReview(context.Background(), "user-123", "book-001", rating, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestAddReview_CommentTooLong(t *testing.T) {
	svc := newTestReviewService(new(mockReviewRepository), new(mockOrderRepository))

	comment := strings.Repeat("x", maxCommentLength+1)
	_, err := svc.AddReview(context.Background(), "user-123", "book-001", 4, comment)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateReview_Owner(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newTestReviewService(reviews, new(mockOrderRepository))
	ctx := context.Background()

	reviews.On("GetByID", ctx, "review-001").
		Return(&domain.Review{ID: "review-001", BookID: "book-001", UserID: "user-123", Rating: 3}, nil)
	reviews.On("Update", ctx, mock.MatchedBy(func(r *domain.Review) bool {
		return r.ID == "review-001" && r.Rating == 5 && r.Comment == "Better on reread."
	})).Return(nil)

	review, err := svc.UpdateReview(ctx, "review-001", "user-123", 5, "Better on reread.")
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	reviews.AssertExpectations(t)
}

func TestUpdateReview_NotOwner(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newTestReviewService(reviews, new(mockOrderRepository))
	ctx := context.Background()

	reviews.On("GetByID", ctx, "review-001").
		Return(&domain.Review{ID: "review-001", UserID: "user-123"}, nil)

	_, err := svc.UpdateReview(ctx, "review-001", "user-999", 1, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteReview_Owner(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newTestReviewService(reviews, new(mockOrderRepository))
	ctx := context.Background()

	reviews.On("GetByID", ctx, "review-001").
		Return(&domain.Review{ID: "review-001", BookID: "book-001", UserID: "user-123"}, nil)
	reviews.On("Delete", ctx, "review-001", "book-001").Return(nil)

	require.NoError(t, svc.DeleteReview(ctx, "review-001", "user-123", "customer"))
	reviews.AssertExpectations(t)
}

func TestDeleteReview_Admin(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newTestReviewService(reviews, new(mockOrderRepository))
	ctx := context.Background()

	reviews.On("GetByID", ctx, "review-001").
		Return(&domain.Review{ID: "review-001", BookID: "book-001", UserID: "user-123"}, nil)
	reviews.On("Delete", ctx, "review-001", "book-001").Return(nil)

	require.NoError(t, svc.DeleteReview(ctx, "review-001", "admin-007", RoleAdmin))
}

func TestDeleteReview_NotOwnerNotAdmin(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newTestReviewService(reviews, new(mockOrderRepository))
	ctx := context.Background()

	reviews.On("GetByID", ctx, "review-001").
		Return(&domain.Review{ID: "review-001", BookID: "book-001", UserID: "user-123"}, nil)

	err := svc.DeleteReview(ctx, "review-001", "user-999", "customer")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestListReviews(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newTestReviewService(reviews, new(mockOrderRepository))
	ctx := context.Background()

	reviews.On("ListByBook", ctx, "book-001", 0, 20).
		Return([]domain.Review{{ID: "review-001", Rating: 5}}, 41, nil)

	page, err := svc.ListReviews(ctx, "book-001", pagination.DefaultParams())
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, 41, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
}
