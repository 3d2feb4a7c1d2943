package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/database"
	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
// Every mutation runs in a transaction that recomputes the book's review
// count and average rating so the aggregates never drift from the rows.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review and refreshes the book's rating aggregates.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.BookID, review.UserID, review.Rating, review.Comment, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "book", review.BookID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	if err := refreshBookRating(ctx, tx, review.BookID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Update modifies the rating and comment of an existing review and refreshes
// the book's rating aggregates.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	review.UpdatedAt = time.Now().UTC()

	ct, err := tx.Exec(ctx, `
		UPDATE reviews
		SET rating = $1, comment = $2, updated_at = $3
		WHERE id = $4`,
		review.Rating, review.Comment, review.UpdatedAt, review.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}

	if err := refreshBookRating(ctx, tx, review.BookID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes a review and refreshes the book's rating aggregates.
func (r *ReviewRepository) Delete(ctx context.Context, id, bookID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	if err := refreshBookRating(ctx, tx, bookID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	var rev domain.Review
	err := r.pool.QueryRow(ctx, `
		SELECT id, book_id, user_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1`,
		id,
	).Scan(&rev.ID, &rev.BookID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &rev, nil
}

// ListByBook returns reviews for a book, newest first, with the total count.
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID string, page, size int) ([]domain.Review, int, error) {
	limit := size
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 0 {
		offset = page * limit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, book_id, user_id, rating, comment, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM reviews
		WHERE book_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		bookID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.BookID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, totalCount, nil
}

// refreshBookRating recomputes the book's review count and average rating
// from the current review rows and writes them back within the transaction.
func refreshBookRating(ctx context.Context, tx pgx.Tx, bookID string) error {
	rows, err := tx.Query(ctx, `SELECT rating FROM reviews WHERE book_id = $1`, bookID)
	if err != nil {
		return fmt.Errorf("read ratings: %w", err)
	}

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			rows.Close()
			return fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ratings: %w", err)
	}

	summary := domain.SummarizeRatings(ratings)

	_, err = tx.Exec(ctx, `
		UPDATE books
		SET average_rating = $1, total_reviews = $2, updated_at = $3
		WHERE id = $4`,
		summary.AverageRating, summary.TotalReviews, time.Now().UTC(), bookID,
	)
	if err != nil {
		return fmt.Errorf("update book rating: %w", err)
	}

	return nil
}
