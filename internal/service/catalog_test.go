package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
	pkgkafka "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/kafka"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/event"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository/rediscache"
)

// --- Mock Repositories ---

type mockBookRepository struct {
	mock.Mock
}

func (m *mockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) View(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) Search(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

type mockCategoryRepository struct {
	mock.Mock
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestProducer builds an event producer against a broker that does not
// exist; publish failures are swallowed by the services under test.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	return event.NewProducer(kafkaProducer, logger)
}

func newTestCache(t *testing.T) *rediscache.SearchCache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return rediscache.NewSearchCache(client, time.Minute)
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

// --- Tests ---

func TestSearchBooks_CacheMissThenHit(t *testing.T) {
	books := new(mockBookRepository)
	svc := NewCatalogService(books, new(mockCategoryRepository), newTestCache(t), newTestLogger())
	ctx := context.Background()

	filter := repository.BookFilter{Keyword: strPtr("go")}
	normalized := filter
	normalized.Size = 20
	books.On("Search", ctx, normalized).Return([]domain.Book{{ID: "book-001", Title: "The Go Programming Language"}}, 1, nil).Once()

	page, err := svc.SearchBooks(ctx, filter)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, 1, page.TotalElements)
	assert.Equal(t, 1, page.TotalPages)

	// Second identical search is served from the cache.
	page, err = svc.SearchBooks(ctx, filter)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "book-001", page.Content[0].ID)

	books.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearchBooks_NoCache(t *testing.T) {
	books := new(mockBookRepository)
	svc := NewCatalogService(books, new(mockCategoryRepository), nil, newTestLogger())
	ctx := context.Background()

	books.On("Search", ctx, mock.AnythingOfType("repository.BookFilter")).Return([]domain.Book{}, 0, nil)

	page, err := svc.SearchBooks(ctx, repository.BookFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.Equal(t, 0, page.TotalElements)
	assert.False(t, page.HasNext)
}

func TestSearchBooks_NormalizesPaging(t *testing.T) {
	books := new(mockBookRepository)
	svc := NewCatalogService(books, new(mockCategoryRepository), nil, newTestLogger())
	ctx := context.Background()

	books.On("Search", ctx, mock.MatchedBy(func(f repository.BookFilter) bool {
		return f.Page == 0 && f.Size == 20
	})).Return([]domain.Book{}, 0, nil)

	_, err := svc.SearchBooks(ctx, repository.BookFilter{Page: -3, Size: 0})
	require.NoError(t, err)
	books.AssertExpectations(t)
}

func TestSearchBooks_InvertedPriceRangeIsEmpty(t *testing.T) {
	books := new(mockBookRepository)
	svc := NewCatalogService(books, new(mockCategoryRepository), nil, newTestLogger())

	page, err := svc.SearchBooks(context.Background(), repository.BookFilter{
		MinPrice: int64Ptr(5000),
		MaxPrice: int64Ptr(1000),
	})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.Equal(t, 0, page.TotalElements)
	books.AssertNotCalled(t, "Search")
}

func TestSearchBooks_InvalidRating(t *testing.T) {
	svc := NewCatalogService(new(mockBookRepository), new(mockCategoryRepository), nil, newTestLogger())

	rating := 5.5
	_, err := svc.SearchBooks(context.Background(), repository.BookFilter{MinRating: &rating})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetBook_CountsView(t *testing.T) {
	books := new(mockBookRepository)
	svc := NewCatalogService(books, new(mockCategoryRepository), nil, newTestLogger())
	ctx := context.Background()

	books.On("View", ctx, "book-001").Return(&domain.Book{ID: "book-001", ViewCount: 42}, nil)

	book, err := svc.GetBook(ctx, "book-001")
	require.NoError(t, err)
	assert.Equal(t, int64(42), book.ViewCount)
	books.AssertExpectations(t)
}

func TestGetBook_NotFound(t *testing.T) {
	books := new(mockBookRepository)
	svc := NewCatalogService(books, new(mockCategoryRepository), nil, newTestLogger())
	ctx := context.Background()

	books.On("View", ctx, "missing").Return(nil, apperrors.NotFound("book", "missing"))

	_, err := svc.GetBook(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListCategories(t *testing.T) {
	categories := new(mockCategoryRepository)
	svc := NewCatalogService(new(mockBookRepository), categories, nil, newTestLogger())
	ctx := context.Background()

	categories.On("List", ctx).Return([]domain.Category{{ID: "cat-001", Name: "Fiction"}}, nil)

	got, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fiction", got[0].Name)
}
