package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/middleware"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/service"
)

const testOrderID = "550e8400-e29b-41d4-a716-446655440001"

func setupOrderRouter(repo *mockOrderRepository, userID, role string) *chi.Mux {
	svc := service.NewOrderService(repo, testEventProducer(), testLogger())
	handler := NewOrderHandler(svc, testLogger())

	r := chi.NewRouter()
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(asUser(userID, role))

		r.Get("/", handler.ListOrders)
		r.Post("/", handler.PlaceOrder)
		r.Get("/{id}", handler.GetOrder)
		r.Get("/number/{orderNumber}", handler.GetOrderByNumber)
		r.With(middleware.RequireRole("admin")).Patch("/{id}/status", handler.UpdateStatus)
	})
	return r
}

func TestPlaceOrder_Handler_Success(t *testing.T) {
	repo := new(mockOrderRepository)
	router := setupOrderRouter(repo, "user-456", "customer")

	repo.On("Place", mock.Anything, mock.AnythingOfType("*domain.Order")).Run(func(args mock.Arguments) {
		order := args.Get(1).(*domain.Order)
		order.Items = []domain.OrderItem{{BookID: testBookID, Title: "The Go Programming Language", Quantity: 2, UnitPrice: 2500}}
		order.TotalAmount = 5000
	}).Return(nil)

	body := []byte(`{"shipping_address":"221B Baker Street, London"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "user-456", data["user_id"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, float64(5000), data["total_amount"])
	assert.NotEmpty(t, data["order_number"])
	repo.AssertExpectations(t)
}

func TestPlaceOrder_Handler_ShortAddress(t *testing.T) {
	repo := new(mockOrderRepository)
	router := setupOrderRouter(repo, "user-456", "customer")

	body := []byte(`{"shipping_address":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	repo.AssertNotCalled(t, "Place", mock.Anything, mock.Anything)
}

func TestPlaceOrder_Handler_EmptyCart(t *testing.T) {
	repo := new(mockOrderRepository)
	router := setupOrderRouter(repo, "user-456", "customer")

	repo.On("Place", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(apperrors.EmptyCart())

	body := []byte(`{"shipping_address":"221B Baker Street, London"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EMPTY_CART", resp.Error.Code)
}

func TestGetOrder_Handler_ForeignOrderHidden(t *testing.T) {
	repo := new(mockOrderRepository)
	router := setupOrderRouter(repo, "user-999", "customer")

	repo.On("GetByID", mock.Anything, testOrderID).
		Return(&domain.Order{ID: testOrderID, UserID: "user-456"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+testOrderID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders_Handler(t *testing.T) {
	repo := new(mockOrderRepository)
	router := setupOrderRouter(repo, "user-456", "customer")

	repo.On("List", mock.Anything, mock.Anything).
		Return([]domain.Order{{ID: testOrderID, UserID: "user-456", Status: domain.OrderStatusPending}}, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total_elements"])
}

func TestUpdateStatus_Handler_Admin(t *testing.T) {
	repo := new(mockOrderRepository)
	router := setupOrderRouter(repo, "admin-007", "admin")

	repo.On("UpdateStatus", mock.Anything, testOrderID, domain.OrderStatusConfirmed).
		Return(&domain.Order{ID: testOrderID, Status: domain.OrderStatusConfirmed}, domain.OrderStatusPending, nil)

	body := []byte(`{"status":"confirmed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+testOrderID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "confirmed", data["status"])
}

func TestUpdateStatus_Handler_NonAdminForbidden(t *testing.T) {
	repo := new(mockOrderRepository)
	router := setupOrderRouter(repo, "user-456", "customer")

	body := []byte(`{"status":"confirmed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+testOrderID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_Handler_BadStatus(t *testing.T) {
	repo := new(mockOrderRepository)
	router := setupOrderRouter(repo, "admin-007", "admin")

	body := []byte(`{"status":"teleported"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+testOrderID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}
