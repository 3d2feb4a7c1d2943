package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
)

// maxLineQuantity caps a single cart line to keep carts sane.
const maxLineQuantity = 100

// CartService implements the business logic for shopping cart operations.
type CartService struct {
	repo   repository.CartRepository
	logger *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, logger *slog.Logger) *CartService {
	return &CartService{
		repo:   repo,
		logger: logger,
	}
}

// GetCart returns the user's cart. A user without a cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// AddItem adds a book to the user's cart, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, bookID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if bookID == "" {
		return nil, apperrors.InvalidInput("book id is required")
	}
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	if quantity > maxLineQuantity {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", maxLineQuantity))
	}

	cart, err := s.repo.AddItem(ctx, userID, bookID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item added",
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// UpdateItemQuantity sets the absolute quantity of a cart line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, bookID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if bookID == "" {
		return nil, apperrors.InvalidInput("book id is required")
	}
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	if quantity > maxLineQuantity {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", maxLineQuantity))
	}

	cart, err := s.repo.UpdateItemQuantity(ctx, userID, bookID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item updated",
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// RemoveItem removes a book from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, bookID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if bookID == "" {
		return nil, apperrors.InvalidInput("book id is required")
	}

	cart, err := s.repo.RemoveItem(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item removed",
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
	)

	return cart, nil
}

// ClearCart removes all items from the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", userID))

	return nil
}
