package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/httputil"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/middleware"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/validator"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/service"
)

// CartHandler handles HTTP requests for the caller's shopping cart.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// AddItemRequest is the JSON request body for adding a book to the cart.
type AddItemRequest struct {
	BookID   string `json:"book_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateItemRequest is the JSON request body for setting a cart line quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// cartResponse decorates the cart with its derived totals so clients do
// not have to re-sum the lines.
type cartResponse struct {
	*domain.Cart
	TotalPrice int64 `json:"total_price"`
	TotalItems int   `json:"total_items"`
}

func newCartResponse(cart *domain.Cart) cartResponse {
	return cartResponse{
		Cart:       cart,
		TotalPrice: cart.TotalAmount(),
		TotalItems: cart.ItemCount(),
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(cart)})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.AddItem(r.Context(), userID, req.BookID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(cart)})
}

// UpdateItem handles PUT /api/v1/cart/items/{bookId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	if _, ok := httputil.ParseUUID(w, bookID); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.UpdateItemQuantity(r.Context(), userID, bookID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(cart)})
}

// RemoveItem handles DELETE /api/v1/cart/items/{bookId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	if _, ok := httputil.ParseUUID(w, bookID); !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.RemoveItem(r.Context(), userID, bookID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(cart)})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.ClearCart(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
