package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/database"
	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
)

func newOrderRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewOrderRepository(mock), mock
}

func orderShell() *domain.Order {
	return &domain.Order{
		ID:              "order-001",
		OrderNumber:     "ORD-1748779200000-deadbeef",
		UserID:          "user-001",
		Status:          domain.OrderStatusPending,
		ShippingAddress: "123 Main St, Springfield",
	}
}

func orderRowColumns() []string {
	return []string{
		"id", "order_number", "user_id", "status", "total_cents",
		"shipping_address", "order_date", "created_at", "updated_at", "items",
	}
}

func expectGetByID(mock pgxmock.PgxPoolIface, id, status string, itemsJSON string) {
	now := time.Now().UTC()
	mock.ExpectQuery("FROM orders o").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(orderRowColumns()).AddRow(
			id, "ORD-1748779200000-deadbeef", "user-001", status, int64(7500),
			"123 Main St, Springfield", now, now, now, []byte(itemsJSON),
		))
}

// --- Place ---

func TestOrderRepository_Place_Success(t *testing.T) {
	repo, mock := newOrderRepo(t)

	o := orderShell()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(o.UserID).
		WillReturnRows(pgxmock.NewRows([]string{"book_id", "title", "author", "quantity", "price_cents", "stock"}).
			AddRow("book-001", "Book One", "Author One", 2, int64(2500), 10).
			AddRow("book-002", "Book Two", "Author Two", 1, int64(2500), 3))
	mock.ExpectExec("UPDATE books SET stock = stock -").
		WithArgs(2, pgxmock.AnyArg(), "book-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE books SET stock = stock -").
		WithArgs(1, pgxmock.AnyArg(), "book-002").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.OrderNumber, o.UserID, o.Status, int64(7500), o.ShippingAddress,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(pgxmock.AnyArg(), o.ID, "book-001", "Book One", "Author One", 2, int64(2500)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(pgxmock.AnyArg(), o.ID, "book-002", "Book Two", "Author Two", 1, int64(2500)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM cart_items").
		WithArgs(o.UserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	err := repo.Place(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), o.TotalAmount)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Book One", o.Items[0].Title)
	assert.NotEmpty(t, o.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Place_EmptyCart(t *testing.T) {
	repo, mock := newOrderRepo(t)

	o := orderShell()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(o.UserID).
		WillReturnRows(pgxmock.NewRows([]string{"book_id", "title", "author", "quantity", "price_cents", "stock"}))
	mock.ExpectRollback()

	err := repo.Place(context.Background(), o)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Place_InsufficientStock(t *testing.T) {
	repo, mock := newOrderRepo(t)

	o := orderShell()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(o.UserID).
		WillReturnRows(pgxmock.NewRows([]string{"book_id", "title", "author", "quantity", "price_cents", "stock"}).
			AddRow("book-001", "Book One", "Author One", 5, int64(2500), 2))
	mock.ExpectRollback()

	err := repo.Place(context.Background(), o)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 2, appErr.Details["available"])
	assert.Equal(t, 5, appErr.Details["requested"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Place_ConcurrentDecrementGuard(t *testing.T) {
	repo, mock := newOrderRepo(t)

	o := orderShell()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(o.UserID).
		WillReturnRows(pgxmock.NewRows([]string{"book_id", "title", "author", "quantity", "price_cents", "stock"}).
			AddRow("book-001", "Book One", "Author One", 2, int64(2500), 2))
	mock.ExpectExec("UPDATE books SET stock = stock -").
		WithArgs(2, pgxmock.AnyArg(), "book-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Place(context.Background(), o)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- GetByID / GetByNumber ---

func TestOrderRepository_GetByID_Success(t *testing.T) {
	repo, mock := newOrderRepo(t)

	itemsJSON := `[{"id":"item-001","book_id":"book-001","title":"Book One","author":"Author One","quantity":2,"unit_price":2500}]`
	expectGetByID(mock, "order-001", domain.OrderStatusPending, itemsJSON)

	got, err := repo.GetByID(context.Background(), "order-001")
	require.NoError(t, err)
	assert.Equal(t, "order-001", got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2500), got.Items[0].UnitPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectQuery("FROM orders o").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(orderRowColumns()))

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- List ---

func TestOrderRepository_List_ByUser(t *testing.T) {
	repo, mock := newOrderRepo(t)

	now := time.Now().UTC()
	userID := "user-001"

	mock.ExpectQuery("FROM orders").
		WithArgs(userID, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "order_number", "user_id", "status", "total_cents",
			"shipping_address", "order_date", "created_at", "updated_at", "total_count",
		}).AddRow("order-001", "ORD-1-a", userID, domain.OrderStatusPending, int64(5000), "addr", now, now, now, 1))
	mock.ExpectQuery("FROM order_items").
		WithArgs([]string{"order-001"}).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "order_id", "book_id", "book_title", "book_author", "quantity", "unit_price_cents",
		}).AddRow("item-001", "order-001", "book-001", "Book One", "Author One", 2, int64(2500)))

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{UserID: &userID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- UpdateStatus ---

func TestOrderRepository_UpdateStatus_Forward(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs("order-001").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.OrderStatusPending))
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusConfirmed, pgxmock.AnyArg(), "order-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	expectGetByID(mock, "order-001", domain.OrderStatusConfirmed, "[]")

	got, oldStatus, err := repo.UpdateStatus(context.Background(), "order-001", domain.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, got.Status)
	assert.Equal(t, domain.OrderStatusPending, oldStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_CancelRestoresStock(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs("order-001").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.OrderStatusProcessing))
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusCancelled, pgxmock.AnyArg(), "order-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE books b").
		WithArgs("order-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()
	expectGetByID(mock, "order-001", domain.OrderStatusCancelled, "[]")

	got, oldStatus, err := repo.UpdateStatus(context.Background(), "order-001", domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
	assert.Equal(t, domain.OrderStatusProcessing, oldStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_RecancelIsNoop(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs("order-001").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.OrderStatusCancelled))
	// No order update, no stock restore.
	mock.ExpectCommit()
	expectGetByID(mock, "order-001", domain.OrderStatusCancelled, "[]")

	got, oldStatus, err := repo.UpdateStatus(context.Background(), "order-001", domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
	assert.Equal(t, domain.OrderStatusCancelled, oldStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_InvalidTransition(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs("order-001").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.OrderStatusDelivered))
	mock.ExpectRollback()

	got, _, err := repo.UpdateStatus(context.Background(), "order-001", domain.OrderStatusPending)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	got, _, err := repo.UpdateStatus(context.Background(), "missing", domain.OrderStatusConfirmed)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- HasPurchased ---

func TestOrderRepository_HasPurchased(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("user-001", "book-001", domain.OrderStatusCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasPurchased(context.Background(), "user-001", "book-001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
