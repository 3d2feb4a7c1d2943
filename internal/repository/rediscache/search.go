package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
)

const keyPrefix = "search:"

// ErrMiss is returned when no cached page exists for the filter.
var ErrMiss = errors.New("search cache miss")

// cachedPage is the stored shape of one search result page.
type cachedPage struct {
	Books []domain.Book `json:"books"`
	Total int           `json:"total"`
}

// SearchCache stores catalog search result pages in Redis under a key
// derived from the full filter, with a short TTL. It is read-through only;
// stale pages age out rather than being invalidated on writes.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache creates a Redis-backed search result cache.
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{client: client, ttl: ttl}
}

// Key derives a stable cache key from the filter. All predicate, sort, and
// paging fields participate, so distinct searches never collide.
func Key(filter repository.BookFilter) string {
	data, _ := json.Marshal(filter)
	sum := sha256.Sum256(data)
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Get retrieves a cached result page, returning ErrMiss when absent.
func (c *SearchCache) Get(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	data, err := c.client.Get(ctx, Key(filter)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, ErrMiss
		}
		return nil, 0, fmt.Errorf("redis get search page: %w", err)
	}

	var page cachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, 0, fmt.Errorf("unmarshal search page: %w", err)
	}

	return page.Books, page.Total, nil
}

// Set stores a result page with the configured TTL.
func (c *SearchCache) Set(ctx context.Context, filter repository.BookFilter, books []domain.Book, total int) error {
	data, err := json.Marshal(cachedPage{Books: books, Total: total})
	if err != nil {
		return fmt.Errorf("marshal search page: %w", err)
	}

	if err := c.client.Set(ctx, Key(filter), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set search page: %w", err)
	}

	return nil
}
