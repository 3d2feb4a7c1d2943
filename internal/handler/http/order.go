package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/httputil"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/middleware"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/pagination"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/validator"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/service"
)

// OrderHandler handles HTTP requests for checkout and orders.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// PlaceOrderRequest is the JSON request body for checking out the cart.
type PlaceOrderRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required,min=10,max=500"`
}

// UpdateStatusRequest is the JSON request body for an order status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

// PlaceOrder handles POST /api/v1/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req PlaceOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	order, err := h.service.PlaceOrder(r.Context(), userID, req.ShippingAddress)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := httputil.ParseUUID(w, id); !ok {
		return
	}

	ctx := r.Context()
	order, err := h.service.GetOrder(ctx, id, middleware.UserIDFromContext(ctx), middleware.RoleFromContext(ctx))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// GetOrderByNumber handles GET /api/v1/orders/number/{orderNumber}
func (h *OrderHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	ctx := r.Context()
	order, err := h.service.GetOrderByNumber(ctx, orderNumber, middleware.UserIDFromContext(ctx), middleware.RoleFromContext(ctx))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// ListOrders handles GET /api/v1/orders
// Regular users see their own orders; admins see all and may filter by status.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		status = &v
	}

	ctx := r.Context()
	page, err := h.service.ListOrders(ctx, middleware.UserIDFromContext(ctx), middleware.RoleFromContext(ctx), status, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// UpdateStatus handles PATCH /api/v1/orders/{id}/status (admin only).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := httputil.ParseUUID(w, id); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status, middleware.RoleFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
