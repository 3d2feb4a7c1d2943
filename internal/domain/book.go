package domain

import (
	"math"
	"time"
)

// Book represents a book in the catalog.
type Book struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Author             string    `json:"author"`
	Description        string    `json:"description"`
	ISBN               string    `json:"isbn"`
	Price              int64     `json:"price"`
	Stock              int       `json:"stock"`
	CategoryID         *string   `json:"category_id,omitempty"`
	ImageURL           string    `json:"image_url,omitempty"`
	Featured           bool      `json:"featured"`
	DiscountPercentage int       `json:"discount_percentage"`
	ViewCount          int64     `json:"view_count"`
	AverageRating      float64   `json:"average_rating"`
	TotalReviews       int       `json:"total_reviews"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// InStock reports whether the book has at least one unit available.
func (b *Book) InStock() bool {
	return b.Stock > 0
}

// RatingSummary contains aggregate review statistics for a book.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// SummarizeRatings computes the review count and the mean rating rounded
// half-up to one decimal place. An empty slice yields a zero average.
func SummarizeRatings(ratings []int) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	var sum int
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return RatingSummary{
		AverageRating: math.Floor(avg*10+0.5) / 10,
		TotalReviews:  len(ratings),
	}
}
