package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultSize is the page size used when none is requested.
	DefaultSize = 20
	// MaxSize caps the page size a client may request.
	MaxSize = 100
)

// Params holds pagination parameters extracted from query strings.
// Page is a zero-based page index.
type Params struct {
	Page   int `json:"page"`
	Size   int `json:"size"`
	Offset int `json:"-"`
}

// DefaultParams returns the first page with the default size.
func DefaultParams() Params {
	return Params{
		Page:   0,
		Size:   DefaultSize,
		Offset: 0,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Invalid or out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v >= 0 {
			p.Page = v
		}
	}

	if size := r.URL.Query().Get("size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 && v <= MaxSize {
			p.Size = v
		}
	}

	p.Offset = p.Page * p.Size
	return p
}

// Normalize clamps the params into their valid ranges and recomputes Offset.
func (p Params) Normalize() Params {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	p.Offset = p.Page * p.Size
	return p
}

// Page wraps a paginated response with its metadata.
type Page[T any] struct {
	Content       []T  `json:"content"`
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	TotalElements int  `json:"total_elements"`
	TotalPages    int  `json:"total_pages"`
	HasNext       bool `json:"has_next"`
}

// NewPage creates a paginated result from the given content and total count.
func NewPage[T any](content []T, totalElements int, params Params) Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := totalElements / params.Size
	if totalElements%params.Size > 0 {
		totalPages++
	}

	return Page[T]{
		Content:       content,
		Page:          params.Page,
		Size:          params.Size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		HasNext:       params.Page < totalPages-1,
	}
}
