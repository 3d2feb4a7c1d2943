package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		page   int
		size   int
		offset int
	}{
		{"defaults", "/books", 0, DefaultSize, 0},
		{"explicit", "/books?page=2&size=10", 2, 10, 20},
		{"negative page ignored", "/books?page=-1", 0, DefaultSize, 0},
		{"oversized ignored", "/books?size=500", 0, DefaultSize, 0},
		{"garbage ignored", "/books?page=abc&size=xyz", 0, DefaultSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			p := FromRequest(r)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.size, p.Size)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestNormalize(t *testing.T) {
	p := Params{Page: -3, Size: 1000}.Normalize()
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, MaxSize, p.Size)

	p = Params{Page: 3, Size: 0}.Normalize()
	assert.Equal(t, DefaultSize, p.Size)
	assert.Equal(t, 3*DefaultSize, p.Offset)
}

func TestNewPage(t *testing.T) {
	params := Params{Page: 0, Size: 10}

	page := NewPage([]string{"a", "b"}, 25, params)
	assert.Equal(t, 25, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)

	last := NewPage([]string{"z"}, 25, Params{Page: 2, Size: 10})
	assert.False(t, last.HasNext)
}

func TestNewPage_Empty(t *testing.T) {
	page := NewPage[string](nil, 0, Params{Page: 0, Size: 20})
	assert.NotNil(t, page.Content)
	assert.Empty(t, page.Content)
	assert.Zero(t, page.TotalPages)
	assert.False(t, page.HasNext)
}
