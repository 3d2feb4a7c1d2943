package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/database"
	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
)

// querier is the read subset shared by DBTX and pgx.Tx, so cart state can be
// loaded both inside and outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CartRepository implements repository.CartRepository using PostgreSQL.
// Every mutation runs in one transaction that locks the affected book row,
// re-validates stock against the resulting quantity, and recomputes the line
// price from the live book price.
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser retrieves the user's cart with items. A user without a cart gets
// an empty cart value.
func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.loadCart(ctx, r.pool, userID)
}

// AddItem adds a book to the cart, merging quantities if the book is already
// present. The cart row is created lazily on first use.
func (r *CartRepository) AddItem(ctx context.Context, userID, bookID string, quantity int) (*domain.Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	var cartID string
	err = tx.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id`,
		uuid.New().String(), userID, now,
	).Scan(&cartID)
	if err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}

	title, price, stock, err := lockBook(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}

	// Merge with any existing line; the summed quantity is validated
	// against stock as a whole.
	var existing int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM cart_items WHERE cart_id = $1 AND book_id = $2`,
		cartID, bookID,
	).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get cart line: %w", err)
	}

	newQuantity := existing + quantity
	if newQuantity > stock {
		return nil, apperrors.InsufficientStock(title, stock, newQuantity)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, book_id, quantity, price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (cart_id, book_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, price_cents = EXCLUDED.price_cents, updated_at = EXCLUDED.updated_at`,
		uuid.New().String(), cartID, bookID, newQuantity, price*int64(newQuantity), now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert cart line: %w", err)
	}

	cart, err := r.loadCart(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return cart, nil
}

// UpdateItemQuantity sets the absolute quantity of a cart line.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, userID, bookID string, quantity int) (*domain.Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cartID, err := cartIDByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	title, price, stock, err := lockBook(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}

	if quantity > stock {
		return nil, apperrors.InsufficientStock(title, stock, quantity)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE cart_items
		SET quantity = $1, price_cents = $2, updated_at = $3
		WHERE cart_id = $4 AND book_id = $5`,
		quantity, price*int64(quantity), time.Now().UTC(), cartID, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperrors.NotFound("cart item", bookID)
	}

	cart, err := r.loadCart(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return cart, nil
}

// RemoveItem removes a book from the cart.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, bookID string) (*domain.Cart, error) {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.book_id = $2`,
		userID, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperrors.NotFound("cart item", bookID)
	}

	return r.loadCart(ctx, r.pool, userID)
}

// Clear removes all items from the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// lockBook reads the book's price and stock under FOR UPDATE so concurrent
// cart mutations and checkouts serialize on the book row.
func lockBook(ctx context.Context, tx pgx.Tx, bookID string) (title string, price int64, stock int, err error) {
	err = tx.QueryRow(ctx,
		`SELECT title, price_cents, stock FROM books WHERE id = $1 FOR UPDATE`,
		bookID,
	).Scan(&title, &price, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, 0, apperrors.NotFound("book", bookID)
		}
		return "", 0, 0, fmt.Errorf("lock book: %w", err)
	}
	return title, price, stock, nil
}

func cartIDByUser(ctx context.Context, q querier, userID string) (string, error) {
	var cartID string
	err := q.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NotFound("cart", userID)
		}
		return "", fmt.Errorf("get cart: %w", err)
	}
	return cartID, nil
}

// loadCart builds the full cart view; titles, authors, and image URLs come
// from the live book rows, line prices from the stored cart lines.
func (r *CartRepository) loadCart(ctx context.Context, q querier, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID, Items: []domain.CartItem{}}

	err := q.QueryRow(ctx,
		`SELECT id, created_at, updated_at FROM carts WHERE user_id = $1`,
		userID,
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT ci.id, ci.book_id, b.title, b.author, ci.quantity, ci.price_cents, b.image_url, ci.created_at, ci.updated_at
		FROM cart_items ci
		JOIN books b ON b.id = ci.book_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at`,
		cart.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.BookID,
			&item.Title,
			&item.Author,
			&item.Quantity,
			&item.Price,
			&item.ImageURL,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return cart, nil
}
