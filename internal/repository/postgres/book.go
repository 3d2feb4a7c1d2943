package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/database"
	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
)

const bookColumns = `id, title, author, description, isbn, price_cents, stock, category_id, image_url, featured, discount_percentage, view_count, average_rating, total_reviews, created_at, updated_at`

// sortColumns whitelists the sort keys accepted by Search and maps them to
// their ORDER BY columns.
var sortColumns = map[string]string{
	"price":    "price_cents",
	"rating":   "average_rating",
	"newest":   "created_at",
	"popular":  "view_count",
	"author":   "author",
	"reviews":  "total_reviews",
	"discount": "discount_percentage",
}

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	pool database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(pool database.DBTX) *BookRepository {
	return &BookRepository{pool: pool}
}

// Create inserts a new book into the database.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.pool.Exec(ctx, query,
		b.ID,
		b.Title,
		b.Author,
		b.Description,
		b.ISBN,
		b.Price,
		b.Stock,
		b.CategoryID,
		b.ImageURL,
		b.Featured,
		b.DiscountPercentage,
		b.ViewCount,
		b.AverageRating,
		b.TotalReviews,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "isbn", b.ISBN)
		}
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by its ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	return r.scanBook(r.pool.QueryRow(ctx, query, id))
}

// View retrieves a book by ID and atomically increments its view counter in
// the same statement.
func (r *BookRepository) View(ctx context.Context, id string) (*domain.Book, error) {
	query := `
		UPDATE books
		SET view_count = view_count + 1
		WHERE id = $1
		RETURNING ` + bookColumns

	return r.scanBook(r.pool.QueryRow(ctx, query, id))
}

// Search returns books matching the filter with the total count. All filter
// predicates are optional and AND-composed.
func (r *BookRepository) Search(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Keyword != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Keyword+"%")
		argIndex++
	}

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.Author != nil {
		conditions = append(conditions, fmt.Sprintf("author ILIKE $%d", argIndex))
		args = append(args, "%"+*filter.Author+"%")
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price_cents >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price_cents <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("average_rating >= $%d", argIndex))
		args = append(args, *filter.MinRating)
		argIndex++
	}

	if filter.InStock != nil && *filter.InStock {
		conditions = append(conditions, "stock > 0")
	}

	if filter.Featured != nil && *filter.Featured {
		conditions = append(conditions, "featured = TRUE")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT `+bookColumns+`,
			   count(*) OVER() AS total_count
		FROM books
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		whereClause, orderBy(filter.SortBy, filter.SortDir), argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	var totalCount int
	books := make([]domain.Book, 0)

	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Author,
			&b.Description,
			&b.ISBN,
			&b.Price,
			&b.Stock,
			&b.CategoryID,
			&b.ImageURL,
			&b.Featured,
			&b.DiscountPercentage,
			&b.ViewCount,
			&b.AverageRating,
			&b.TotalReviews,
			&b.CreatedAt,
			&b.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}

	return books, totalCount, nil
}

// orderBy resolves the sort key and direction to a safe ORDER BY clause.
// Unknown keys fall back to title.
func orderBy(sortBy, sortDir string) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "title"
	}
	dir := "ASC"
	if strings.EqualFold(sortDir, "desc") {
		dir = "DESC"
	}
	return column + " " + dir
}

func (r *BookRepository) scanBook(row pgx.Row) (*domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Description,
		&b.ISBN,
		&b.Price,
		&b.Stock,
		&b.CategoryID,
		&b.ImageURL,
		&b.Featured,
		&b.DiscountPercentage,
		&b.ViewCount,
		&b.AverageRating,
		&b.TotalReviews,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
