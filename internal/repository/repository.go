package repository

import (
	"context"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
)

// BookFilter defines search criteria for the catalog. All predicate fields
// are optional and AND-composed.
type BookFilter struct {
	Keyword    *string
	CategoryID *string
	Author     *string
	MinPrice   *int64
	MaxPrice   *int64
	MinRating  *float64
	InStock    *bool
	Featured   *bool

	SortBy  string
	SortDir string
	Page    int
	Size    int
}

// BookRepository defines the interface for book persistence operations.
type BookRepository interface {
	// Create inserts a new book into the store.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// View retrieves a book by ID and atomically increments its view counter.
	View(ctx context.Context, id string) (*domain.Book, error)

	// Search returns books matching the filter along with the total count.
	Search(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)
}

// CategoryRepository defines the interface for category persistence operations.
type CategoryRepository interface {
	// Create inserts a new category into the store.
	Create(ctx context.Context, category *domain.Category) error

	// List returns all categories ordered by name.
	List(ctx context.Context) ([]domain.Category, error)
}

// CartRepository defines the interface for cart persistence operations.
// Mutations run in a single transaction that locks the affected book row,
// re-validates stock, and recomputes line prices from the live book price.
type CartRepository interface {
	// GetByUser retrieves the user's cart with items. A user without a cart
	// gets an empty cart value (not an error).
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)

	// AddItem adds a book to the cart, merging quantities if the book is
	// already present. The cart is created lazily on first use.
	AddItem(ctx context.Context, userID, bookID string, quantity int) (*domain.Cart, error)

	// UpdateItemQuantity sets the absolute quantity of a cart line.
	UpdateItemQuantity(ctx context.Context, userID, bookID string, quantity int) (*domain.Cart, error)

	// RemoveItem removes a book from the cart.
	RemoveItem(ctx context.Context, userID, bookID string) (*domain.Cart, error)

	// Clear removes all items from the user's cart.
	Clear(ctx context.Context, userID string) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID *string
	Status *string
	Page   int
	Size   int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Place converts the user's cart into the given order shell atomically:
	// it locks the cart and book rows, validates and decrements stock,
	// snapshots the items onto the order, and clears the cart. The order's
	// ID, OrderNumber, UserID, Status, and ShippingAddress must be set by
	// the caller; Items and TotalAmount are filled in from the cart.
	Place(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByNumber retrieves an order by its order number, including items.
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)

	// List returns orders matching the filter along with the total count,
	// newest first.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus transitions an order to the given status and reports the
	// status the order held before the transition. The transition is
	// re-validated against the current status under lock; moving into
	// cancelled restores the ordered quantities to book stock exactly once.
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, string, error)

	// HasPurchased reports whether the user has a non-cancelled order
	// containing the given book.
	HasPurchased(ctx context.Context, userID, bookID string) (bool, error)
}

// ReviewRepository defines the interface for review persistence operations.
// Every mutation recomputes the book's review count and average rating in
// the same transaction.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// Update modifies the rating and comment of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review by its identifier.
	Delete(ctx context.Context, id, bookID string) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByBook returns reviews for a book, newest first, with total count.
	ListByBook(ctx context.Context, bookID string, page, size int) ([]domain.Review, int, error)
}
