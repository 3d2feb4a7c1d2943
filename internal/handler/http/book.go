package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/httputil"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/pagination"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/service"
)

// BookHandler handles HTTP requests for catalog endpoints.
type BookHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewBookHandler creates a new catalog HTTP handler.
func NewBookHandler(svc *service.CatalogService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: svc,
		logger:  logger,
	}
}

// SearchBooks handles GET /api/v1/books
func (h *BookHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.BookFilter{
		Page: params.Page,
		Size: params.Size,
	}

	q := r.URL.Query()
	if v := q.Get("keyword"); v != "" {
		filter.Keyword = &v
	}
	if v := q.Get("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := q.Get("author"); v != "" {
		filter.Author = &v
	}
	if v := q.Get("min_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must be a valid number of cents"},
			})
			return
		}
		filter.MinPrice = &price
	}
	if v := q.Get("max_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must be a valid number of cents"},
			})
			return
		}
		filter.MaxPrice = &price
	}
	if v := q.Get("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_rating must be a valid number"},
			})
			return
		}
		filter.MinRating = &rating
	}
	if v := q.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "in_stock must be true or false"},
			})
			return
		}
		filter.InStock = &inStock
	}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "featured must be true or false"},
			})
			return
		}
		filter.Featured = &featured
	}
	filter.SortBy = q.Get("sort_by")
	filter.SortDir = q.Get("sort_dir")

	page, err := h.service.SearchBooks(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// GetBook handles GET /api/v1/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := httputil.ParseUUID(w, id); !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// ListCategories handles GET /api/v1/categories
func (h *BookHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}
