package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/pagination"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/event"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
)

// RoleAdmin is the role allowed to manage orders beyond its own.
const RoleAdmin = "admin"

// OrderService implements the business logic for checkout and order
// management. User identity and role are explicit parameters on every
// operation.
type OrderService struct {
	repo     repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// PlaceOrder converts the user's cart into a pending order. Stock is
// validated and decremented, and the cart cleared, in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, shippingAddress string) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, apperrors.InvalidInput("shipping address is required")
	}

	order := &domain.Order{
		ID:              uuid.New().String(),
		OrderNumber:     domain.NewOrderNumber(time.Now().UTC()),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		ShippingAddress: shippingAddress,
	}

	if err := s.repo.Place(ctx, order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	if err := s.producer.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", userID),
		slog.Int64("total_amount", order.TotalAmount),
		slog.Int("items", len(order.Items)),
	)

	return order, nil
}

// GetOrder retrieves an order by ID. Non-admin callers only see their own
// orders; anyone else's order reads as not found.
func (s *OrderService) GetOrder(ctx context.Context, id, userID, role string) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if role != RoleAdmin && order.UserID != userID {
		return nil, apperrors.NotFound("order", id)
	}

	return order, nil
}

// GetOrderByNumber retrieves an order by its order number with the same
// ownership rule as GetOrder.
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber, userID, role string) (*domain.Order, error) {
	if orderNumber == "" {
		return nil, apperrors.InvalidInput("order number is required")
	}

	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	if role != RoleAdmin && order.UserID != userID {
		return nil, apperrors.NotFound("order", orderNumber)
	}

	return order, nil
}

// ListOrders returns the caller's orders, newest first. Admins may list all
// orders and filter by status.
func (s *OrderService) ListOrders(ctx context.Context, userID, role string, status *string, params pagination.Params) (pagination.Page[domain.Order], error) {
	var empty pagination.Page[domain.Order]

	if status != nil && !domain.IsValidStatus(*status) {
		return empty, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", *status))
	}

	params = params.Normalize()
	filter := repository.OrderFilter{
		Status: status,
		Page:   params.Page,
		Size:   params.Size,
	}
	if role != RoleAdmin {
		if userID == "" {
			return empty, apperrors.InvalidInput("user id is required")
		}
		filter.UserID = &userID
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return empty, fmt.Errorf("list orders: %w", err)
	}

	return pagination.NewPage(orders, total, params), nil
}

// UpdateOrderStatus transitions an order to a new status. Admin only.
// Moving into cancelled restores the ordered quantities to stock.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status, role string) (*domain.Order, error) {
	if role != RoleAdmin {
		return nil, apperrors.Forbidden("only admins may change order status")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", status))
	}

	// The repository reports the old status from under its row lock, so
	// the change decision cannot race with a concurrent transition.
	order, oldStatus, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if order.Status != oldStatus {
		if err := s.producer.PublishOrderStatusChanged(ctx, order.ID, oldStatus, order.Status); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
			// Do not fail the operation if event publishing fails.
		}
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", order.Status),
	)

	return order, nil
}
