package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/kafka"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
)

// Kafka topic constants for bookstore domain events.
const (
	TopicOrderPlaced        = "bookstore.order.placed"
	TopicOrderStatusChanged = "bookstore.order.status_changed"
	TopicReviewCreated      = "bookstore.review.created"
	TopicReviewUpdated      = "bookstore.review.updated"
	TopicReviewDeleted      = "bookstore.review.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeOrder  = "order"
	AggregateTypeReview = "review"
)

// Source identifier for events originating from this service.
const SourceBookstore = "bookstore-backend"

// OrderPlacedData is the payload for an order.placed event (full order snapshot).
type OrderPlacedData struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          string          `json:"user_id"`
	Status          string          `json:"status"`
	Items           []OrderItemData `json:"items"`
	TotalAmount     int64           `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
}

// OrderItemData is the event payload for an order line.
type OrderItemData struct {
	ID        string `json:"id"`
	BookID    string `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// ReviewData is the payload for review lifecycle events.
type ReviewData struct {
	ReviewID string `json:"review_id"`
	BookID   string `json:"book_id"`
	UserID   string `json:"user_id"`
	Rating   int    `json:"rating,omitempty"`
}

// Producer publishes bookstore domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderPlaced publishes an order.placed event with the full order snapshot.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{
			ID:        item.ID,
			BookID:    item.BookID,
			Title:     item.Title,
			Author:    item.Author,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	data := OrderPlacedData{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Status:          order.Status,
		Items:           items,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
	}

	event, err := pkgkafka.NewEvent(TopicOrderPlaced, order.ID, AggregateTypeOrder, SourceBookstore, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", order.UserID),
	)

	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID, oldStatus, newStatus string) error {
	data := OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, orderID, AggregateTypeOrder, SourceBookstore, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", orderID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewCreated, "review.created", review)
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewUpdated, "review.updated", review)
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, bookID, userID string) error {
	data := ReviewData{
		ReviewID: reviewID,
		BookID:   bookID,
		UserID:   userID,
	}

	event, err := pkgkafka.NewEvent(TopicReviewDeleted, reviewID, AggregateTypeReview, SourceBookstore, data)
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.deleted event",
		slog.String("review_id", reviewID),
		slog.String("book_id", bookID),
	)

	return nil
}

func (p *Producer) publishReview(ctx context.Context, topic, name string, review *domain.Review) error {
	data := ReviewData{
		ReviewID: review.ID,
		BookID:   review.BookID,
		UserID:   review.UserID,
		Rating:   review.Rating,
	}

	event, err := pkgkafka.NewEvent(topic, review.ID, AggregateTypeReview, SourceBookstore, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", name, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", name, err)
	}

	p.logger.DebugContext(ctx, "published "+name+" event",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.Int("rating", review.Rating),
	)

	return nil
}
