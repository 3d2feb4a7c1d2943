package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/database"
	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Place converts the user's cart into the given order atomically. The cart
// lines are read with the book rows locked, stock is validated and
// decremented per line, the order and item snapshots are inserted, and the
// cart is cleared. Any failure rolls the whole operation back.
func (r *OrderRepository) Place(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT ci.book_id, b.title, b.author, ci.quantity, b.price_cents, b.stock
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN books b ON b.id = ci.book_id
		WHERE c.user_id = $1
		ORDER BY ci.created_at
		FOR UPDATE OF b`,
		o.UserID,
	)
	if err != nil {
		return fmt.Errorf("read cart for checkout: %w", err)
	}

	type line struct {
		item  domain.OrderItem
		stock int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.item.BookID, &l.item.Title, &l.item.Author, &l.item.Quantity, &l.item.UnitPrice, &l.stock); err != nil {
			rows.Close()
			return fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cart lines: %w", err)
	}

	if len(lines) == 0 {
		return apperrors.EmptyCart()
	}

	now := time.Now().UTC()
	var total int64
	items := make([]domain.OrderItem, 0, len(lines))

	for _, l := range lines {
		if l.item.Quantity > l.stock {
			return apperrors.InsufficientStock(l.item.Title, l.stock, l.item.Quantity)
		}

		// Conditional decrement guards stock even if another path bypassed
		// the row lock.
		ct, err := tx.Exec(ctx,
			`UPDATE books SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $1`,
			l.item.Quantity, now, l.item.BookID,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.InsufficientStock(l.item.Title, l.stock, l.item.Quantity)
		}

		l.item.ID = uuid.New().String()
		total += l.item.UnitPrice * int64(l.item.Quantity)
		items = append(items, l.item)
	}

	o.Items = items
	o.TotalAmount = total
	o.OrderDate = now
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, status, total_cents, shipping_address, order_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.TotalAmount, o.ShippingAddress, o.OrderDate, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, book_id, book_title, book_author, quantity, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, o.ID, item.BookID, item.Title, item.Author, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1`,
		o.UserID,
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const orderSelect = `
	SELECT
		o.id, o.order_number, o.user_id, o.status, o.total_cents,
		o.shipping_address, o.order_date, o.created_at, o.updated_at,
		COALESCE(
			JSONB_AGG(
				JSONB_BUILD_OBJECT(
					'id', oi.id,
					'book_id', oi.book_id,
					'title', oi.book_title,
					'author', oi.book_author,
					'quantity', oi.quantity,
					'unit_price', oi.unit_price_cents
				) ORDER BY oi.id
			) FILTER (WHERE oi.id IS NOT NULL),
			'[]'::jsonb
		) AS items
	FROM orders o
	LEFT JOIN order_items oi ON o.id = oi.order_id
	%s
	GROUP BY o.id, o.order_number, o.user_id, o.status, o.total_cents,
		o.shipping_address, o.order_date, o.created_at, o.updated_at`

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf(orderSelect, "WHERE o.id = $1")
	return r.scanOrder(r.pool.QueryRow(ctx, query, id))
}

// GetByNumber retrieves an order by its order number, eagerly loading its items.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := fmt.Sprintf(orderSelect, "WHERE o.order_number = $1")
	return r.scanOrder(r.pool.QueryRow(ctx, query, orderNumber))
}

// List returns orders matching the given filter with the total count, newest
// first.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT id, order_number, user_id, status, total_cents, shipping_address, order_date, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY order_date DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.Size
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 0 {
		offset = filter.Page * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.UserID,
			&o.Status,
			&o.TotalAmount,
			&o.ShippingAddress,
			&o.OrderDate,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		o.Items = []domain.OrderItem{}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load items for all orders in a single query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		index := make(map[string]int, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
			index[orders[i].ID] = i
		}

		itemRows, err := r.pool.Query(ctx, `
			SELECT id, order_id, book_id, book_title, book_author, quantity, unit_price_cents
			FROM order_items
			WHERE order_id = ANY($1)
			ORDER BY id`,
			orderIDs,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load order items: %w", err)
		}
		defer itemRows.Close()

		for itemRows.Next() {
			var (
				item    domain.OrderItem
				orderID string
			)
			if err := itemRows.Scan(&item.ID, &orderID, &item.BookID, &item.Title, &item.Author, &item.Quantity, &item.UnitPrice); err != nil {
				return nil, 0, fmt.Errorf("scan order item row: %w", err)
			}
			if i, ok := index[orderID]; ok {
				orders[i].Items = append(orders[i].Items, item)
			}
		}

		if err := itemRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate order item rows: %w", err)
		}
	}

	return orders, totalCount, nil
}

// UpdateStatus transitions an order to the given status and reports the
// status the order held before the transition. The current status is read
// under lock so the transition check, the cancellation restock, and the
// reported old status cannot race with concurrent updates. Cancelling an
// already cancelled order is a no-op; the restock therefore runs at most
// once per order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.NotFound("order", id)
		}
		return nil, "", fmt.Errorf("lock order: %w", err)
	}

	if current == domain.OrderStatusCancelled && status == domain.OrderStatusCancelled {
		if err := tx.Commit(ctx); err != nil {
			return nil, "", fmt.Errorf("commit transaction: %w", err)
		}
		order, err := r.GetByID(ctx, id)
		return order, current, err
	}

	if !(&domain.Order{Status: current}).CanTransitionTo(status) {
		return nil, "", apperrors.Conflict(fmt.Sprintf("cannot transition order from %s to %s", current, status))
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, "", fmt.Errorf("update order status: %w", err)
	}

	if status == domain.OrderStatusCancelled {
		_, err = tx.Exec(ctx, `
			UPDATE books b
			SET stock = b.stock + oi.quantity, updated_at = NOW()
			FROM order_items oi
			WHERE oi.order_id = $1 AND oi.book_id = b.id`,
			id,
		)
		if err != nil {
			return nil, "", fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("commit transaction: %w", err)
	}

	order, err := r.GetByID(ctx, id)
	return order, current, err
}

// HasPurchased reports whether the user has a non-cancelled order containing
// the given book.
func (r *OrderRepository) HasPurchased(ctx context.Context, userID, bookID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.book_id = $2 AND o.status <> $3
		)`,
		userID, bookID, domain.OrderStatusCancelled,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return exists, nil
}

func (r *OrderRepository) scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
	)

	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.TotalAmount,
		&o.ShippingAddress,
		&o.OrderDate,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}

	return &o, nil
}
