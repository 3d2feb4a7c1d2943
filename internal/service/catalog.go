package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/pagination"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository/rediscache"
)

// CatalogService implements the business logic for catalog browsing.
type CatalogService struct {
	books      repository.BookRepository
	categories repository.CategoryRepository
	cache      *rediscache.SearchCache
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service. The cache may be nil,
// in which case every search hits the database.
func NewCatalogService(
	books repository.BookRepository,
	categories repository.CategoryRepository,
	cache *rediscache.SearchCache,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		books:      books,
		categories: categories,
		cache:      cache,
		logger:     logger,
	}
}

// SearchBooks returns a page of books matching the filter. Result pages are
// served from the Redis cache when present; cache failures fall back to the
// database and are logged, never surfaced.
func (s *CatalogService) SearchBooks(ctx context.Context, filter repository.BookFilter) (pagination.Page[domain.Book], error) {
	var empty pagination.Page[domain.Book]

	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return empty, apperrors.InvalidInput("min_price must not be negative")
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return empty, apperrors.InvalidInput("max_price must not be negative")
	}
	if filter.MinRating != nil && (*filter.MinRating < 0 || *filter.MinRating > 5) {
		return empty, apperrors.InvalidInput("min_rating must be between 0 and 5")
	}

	// An inverted price range matches nothing rather than erroring.
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		params := pagination.Params{Page: filter.Page, Size: filter.Size}.Normalize()
		return pagination.NewPage([]domain.Book{}, 0, params), nil
	}

	params := pagination.Params{Page: filter.Page, Size: filter.Size}.Normalize()
	filter.Page = params.Page
	filter.Size = params.Size

	if s.cache != nil {
		books, total, err := s.cache.Get(ctx, filter)
		switch {
		case err == nil:
			return pagination.NewPage(books, total, params), nil
		case !errors.Is(err, rediscache.ErrMiss):
			s.logger.WarnContext(ctx, "search cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}

	books, total, err := s.books.Search(ctx, filter)
	if err != nil {
		return empty, fmt.Errorf("search books: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, filter, books, total); err != nil {
			s.logger.WarnContext(ctx, "search cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return pagination.NewPage(books, total, params), nil
}

// GetBook retrieves a book by ID and counts the read as a view.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("book id is required")
	}

	book, err := s.books.View(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

// ListCategories returns all categories ordered by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
